package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
)

// BranchHeader lets staff without a branch claim act for a specific branch
const BranchHeader = "X-Branch-ID"

// RoleAdmin may act for any branch
const RoleAdmin = "admin"

// BranchMiddleware resolves the branch the request acts for. The token's
// branch claim wins; only admins may pick another branch through the header.
func BranchMiddleware(branches repository.BranchRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		branchID := uuid.Nil
		if v, ok := c.Get("token_branch_id"); ok {
			branchID, _ = v.(uuid.UUID)
		}

		if header := c.GetHeader(BranchHeader); header != "" {
			requested, err := uuid.Parse(header)
			if err != nil {
				response.BadRequest(c, "Invalid "+BranchHeader+" header")
				c.Abort()
				return
			}
			if branchID != uuid.Nil && requested != branchID && !hasAnyRole(c, RoleAdmin) {
				response.Forbidden(c, "Access denied to this branch")
				c.Abort()
				return
			}
			branchID = requested
		}

		if branchID == uuid.Nil {
			c.Next()
			return
		}

		branch, err := branches.GetByID(c.Request.Context(), branchID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if branch == nil {
			response.NotFound(c, "Branch not found")
			c.Abort()
			return
		}

		c.Set("branch_id", branch.ID)
		c.Set("branch", branch)

		c.Next()
	}
}

// GetBranchID retrieves the resolved branch ID from the Gin context
func GetBranchID(c *gin.Context) uuid.UUID {
	branchID, exists := c.Get("branch_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := branchID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
