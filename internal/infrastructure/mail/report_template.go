package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
)

var reportTemplate = template.Must(template.New("threat_report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Threat report for {{.Period}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff;">
		<tr>
			<td style="padding: 30px; background-color: #1f3a93; color: #ffffff;">
				<h1 style="margin: 0; font-size: 24px;">{{.AccountName}}: threat report</h1>
				<p style="margin: 8px 0 0;">{{.Period}}</p>
			</td>
		</tr>
		<tr>
			<td style="padding: 30px; color: #333333; font-size: 16px; line-height: 1.6;">
				<p style="margin: 0 0 10px;">Emails analyzed: <strong>{{.Stats.EmailsAnalyzed}}</strong> ({{.Stats.EmailsAnalyzedChange}})</p>
				<p style="margin: 0 0 10px;">Threats detected: <strong>{{.Stats.ThreatsDetected}}</strong> ({{.Stats.ThreatsDetectedChange}})</p>
				<p style="margin: 0 0 20px;">Threat rate: <strong>{{.Stats.ThreatRate}}</strong></p>
				{{- if .Categories}}
				<table border="0" cellpadding="6" cellspacing="0" width="100%" style="border-collapse: collapse;">
					<tr><th align="left">Category</th><th align="right">Count</th></tr>
					{{- range .Categories}}
					<tr><td>{{.Category}}</td><td align="right">{{.Count}}</td></tr>
					{{- end}}
				</table>
				{{- else}}
				<p style="margin: 0;">No threats were detected this period.</p>
				{{- end}}
				{{- if .DashboardURL}}
				<p style="margin: 30px 0 0;"><a href="{{.DashboardURL}}" style="color: #1f3a93;">Open the dashboard</a></p>
				{{- end}}
			</td>
		</tr>
	</table>
</body>
</html>`))

// RenderThreatReport renders the report email body
func RenderThreatReport(report entity.ThreatReport) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to render threat report: %w", err)
	}
	return buf.String(), nil
}

// SendThreatReport renders and delivers one report
func (m *Mailer) SendThreatReport(ctx context.Context, to string, report entity.ThreatReport) error {
	body, err := RenderThreatReport(report)
	if err != nil {
		return err
	}
	return m.Send(ctx, to, fmt.Sprintf("Your %s threat report", report.Period), body)
}
