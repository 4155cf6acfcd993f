package email

// paymentReminderTemplate is the HTML template for outstanding balance reminders
const paymentReminderTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Payment Reminder</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f7f4ee;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background: #8a6d3b; padding: 32px 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.ShopName}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 36px 30px;">
                            <h2 style="color: #2d2d2d; margin: 0 0 20px 0; font-size: 22px;">Payment Reminder</h2>
                            <p style="color: #4a4a4a; font-size: 16px; line-height: 1.6;">Dear {{.CustomerName}},</p>
                            <p style="color: #4a4a4a; font-size: 16px; line-height: 1.6;">
                                This is a friendly reminder about the outstanding balance on your custom order
                                <strong>{{.OrderReference}}</strong>.
                            </p>
                            <table role="presentation" style="width: 100%; margin: 20px 0; border-collapse: collapse;">
                                <tr><td style="padding: 6px 0; color: #718096;">Order date</td><td style="text-align: right;">{{.OrderDate}}</td></tr>
                                {{if .EstimatedCompletionDate}}<tr><td style="padding: 6px 0; color: #718096;">Estimated completion</td><td style="text-align: right;">{{.EstimatedCompletionDate}}</td></tr>{{end}}
                                <tr><td style="padding: 6px 0; color: #718096;">Total amount</td><td style="text-align: right;">{{.TotalAmount}}</td></tr>
                                <tr><td style="padding: 6px 0; color: #718096;">Paid so far</td><td style="text-align: right;">{{.PaidAmount}}</td></tr>
                                <tr><td style="padding: 6px 0; color: #2d2d2d; font-weight: 600;">Balance due</td><td style="text-align: right; font-weight: 600;">{{.BalanceAmount}}</td></tr>
                            </table>
                            <p style="color: #718096; font-size: 14px; line-height: 1.6;">
                                Please visit us or contact the shop to settle the balance. If you have already paid, kindly ignore this message.
                            </p>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #faf8f4; padding: 24px; text-align: center; border-top: 1px solid #eee4d3;">
                            <p style="color: #a0aec0; font-size: 13px; margin: 0;">This email was sent by {{.ShopName}}</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`

// completionNoticeTemplate is the HTML template for ready-for-pickup notices
const completionNoticeTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Your Order is Ready</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f7f4ee;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background: #8a6d3b; padding: 32px 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.ShopName}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 36px 30px;">
                            <h2 style="color: #2d2d2d; margin: 0 0 20px 0; font-size: 22px;">Your order is ready!</h2>
                            <p style="color: #4a4a4a; font-size: 16px; line-height: 1.6;">Dear {{.CustomerName}},</p>
                            <p style="color: #4a4a4a; font-size: 16px; line-height: 1.6;">
                                Your custom order <strong>{{.OrderReference}}</strong> has been completed and is ready for pickup at
                                <strong>{{.PickupLocation}}</strong>.
                            </p>
                            <table role="presentation" style="width: 100%; margin: 20px 0; border-collapse: collapse;">
                                <tr><td style="padding: 6px 0; color: #718096;">Total amount</td><td style="text-align: right;">{{.TotalAmount}}</td></tr>
                                <tr><td style="padding: 6px 0; color: #2d2d2d; font-weight: 600;">Remaining balance</td><td style="text-align: right; font-weight: 600;">{{.RemainingBalance}}</td></tr>
                            </table>
                            {{if .HasBalance}}
                            <p style="color: #4a4a4a; font-size: 15px; line-height: 1.6;">Please bring the remaining balance when collecting your piece.</p>
                            {{else}}
                            <p style="color: #4a4a4a; font-size: 15px; line-height: 1.6;">Your order is fully paid. We look forward to seeing you.</p>
                            {{end}}
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #faf8f4; padding: 24px; text-align: center; border-top: 1px solid #eee4d3;">
                            <p style="color: #a0aec0; font-size: 13px; margin: 0;">This email was sent by {{.ShopName}}</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
