package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath  string // Path to write the HTML file
	EmbedAssets bool   // Embed screenshots as base64 (makes file larger but portable)
	Title       string // Report title (default: "Test Report")
}

// GenerateHTML generates an HTML report from the report directory.
func GenerateHTML(reportDir string, cfg HTMLConfig) error {
	index, flows, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = "Test Report"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(reportDir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(reportDir, index, flows, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	RunID         string
	Browser       string
	StartTime     string
	TotalDuration string
	Status        Status
	Summary       Summary
	PassRate      float64
	Flows         []HTMLFlow
}

// HTMLFlow is a flow row in the report.
type HTMLFlow struct {
	ID          string
	Name        string
	SourceFile  string
	Status      Status
	DurationStr string
	Error       string
	Message     string
	Steps       []HTMLStep
}

// HTMLStep is a step row in a flow.
type HTMLStep struct {
	Index       int
	Command     string
	Label       string
	Status      Status
	DurationStr string
	Message     string
	Error       string
	Screenshots []string // Relative paths or data URIs
	PageSources []string // Relative paths
}

func buildHTMLData(reportDir string, index *Index, flows []FlowDetail, cfg HTMLConfig) HTMLData {
	data := HTMLData{
		Title:         cfg.Title,
		RunID:         index.RunID,
		Browser:       index.Browser,
		StartTime:     index.StartTime.Format("2006-01-02 15:04:05"),
		TotalDuration: formatDuration(index.Duration),
		Status:        index.Status,
		Summary:       index.Summary,
	}
	if index.Summary.Total > 0 {
		data.PassRate = float64(index.Summary.Passed) / float64(index.Summary.Total) * 100
	}

	for i, entry := range index.Flows {
		hf := HTMLFlow{
			ID:          entry.ID,
			Name:        entry.Name,
			SourceFile:  entry.SourceFile,
			Status:      entry.Status,
			DurationStr: formatDuration(entry.Duration),
			Error:       entry.Error,
			Message:     entry.Message,
		}
		if i < len(flows) {
			for _, s := range flows[i].Steps {
				hs := HTMLStep{
					Index:       s.Index,
					Command:     s.Command,
					Label:       s.Label,
					Status:      s.Status,
					DurationStr: formatDuration(s.Duration),
					Message:     s.Message,
				}
				if s.Error != nil {
					hs.Error = s.Error.Message
				}
				for _, a := range s.Artifacts {
					switch {
					case strings.HasPrefix(a.ContentType, "image/"):
						src := a.Path
						if cfg.EmbedAssets {
							src = loadAsBase64(filepath.Join(reportDir, filepath.FromSlash(a.Path)))
						}
						if src != "" {
							hs.Screenshots = append(hs.Screenshots, src)
						}
					default:
						hs.PageSources = append(hs.PageSources, a.Path)
					}
				}
				hf.Steps = append(hf.Steps, hs)
			}
		}
		data.Flows = append(data.Flows, hf)
	}
	return data
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		// Data URIs are built by loadAsBase64 from files we wrote
		"safeURL": func(s string) template.URL { return template.URL(s) },
	}).Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --failed: #ef4444;
            --failed-bg: rgba(239, 68, 68, 0.08);
            --skipped: #eab308;
            --warned: #f97316;
            --pending: #6b7280;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }
        .header { background: var(--bg-secondary); border-bottom: 1px solid var(--border-color); padding: 16px 24px; }
        .header h1 { font-size: 20px; }
        .meta { color: var(--text-muted); font-size: 13px; }
        .summary { display: flex; gap: 24px; margin-top: 12px; }
        .summary div { font-size: 14px; }
        main { padding: 16px 24px; }
        details.flow { border: 1px solid var(--border-color); border-radius: 6px; margin-bottom: 8px; }
        details.flow > summary { cursor: pointer; padding: 10px 14px; display: flex; gap: 12px; align-items: center; }
        .status { font-size: 12px; font-weight: 600; text-transform: uppercase; padding: 2px 8px; border-radius: 4px; color: #fff; }
        .status-passed { background: var(--passed); }
        .status-warned { background: var(--warned); }
        .status-failed, .status-errored { background: var(--failed); }
        .status-skipped { background: var(--skipped); }
        .status-pending, .status-running { background: var(--pending); }
        .duration { margin-left: auto; color: var(--text-muted); font-size: 13px; }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        td { border-top: 1px solid var(--border-color); padding: 6px 14px; vertical-align: top; }
        tr.failed td, tr.errored td { background: var(--failed-bg); }
        .error { color: var(--failed); white-space: pre-wrap; }
        .shot { max-width: 320px; margin-top: 6px; border: 1px solid var(--border-color); }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}} <span class="status status-{{.Status}}">{{.Status}}</span></h1>
        <div class="meta">Run {{.RunID}}{{if .Browser}} &middot; {{.Browser}}{{end}} &middot; {{.StartTime}} &middot; {{.TotalDuration}}</div>
        <div class="summary">
            <div>Total: <b>{{.Summary.Total}}</b></div>
            <div>Passed: <b>{{.Summary.Passed}}</b></div>
            <div>Failed: <b>{{.Summary.Failed}}</b></div>
            <div>Skipped: <b>{{.Summary.Skipped}}</b></div>
            <div>Pass rate: <b>{{printf "%.0f" .PassRate}}%</b></div>
        </div>
    </div>
    <main>
    {{range .Flows}}
        <details class="flow" id="{{.ID}}"{{if .Status.IsFailure}} open{{end}}>
            <summary>
                <span class="status status-{{.Status}}">{{.Status}}</span>
                <span>{{.Name}}</span>
                {{if .SourceFile}}<span class="meta">{{.SourceFile}}</span>{{end}}
                <span class="duration">{{.DurationStr}}</span>
            </summary>
            {{if .Error}}<div class="error" style="padding: 6px 14px">{{.Error}}</div>{{end}}
            {{if .Message}}<div class="meta" style="padding: 6px 14px">{{.Message}}</div>{{end}}
            <table>
            {{range .Steps}}
                <tr class="{{.Status}}">
                    <td>{{.Index}}</td>
                    <td><span class="status status-{{.Status}}">{{.Status}}</span></td>
                    <td>
                        <b>{{.Command}}</b>{{if .Label}} {{.Label}}{{end}}
                        {{if .Message}}<div class="meta">{{.Message}}</div>{{end}}
                        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
                        {{range .Screenshots}}<div><img class="shot" src="{{safeURL .}}" alt="screenshot"></div>{{end}}
                        {{range .PageSources}}<div><a href="{{.}}">page source</a></div>{{end}}
                    </td>
                    <td class="duration">{{.DurationStr}}</td>
                </tr>
            {{end}}
            </table>
        </details>
    {{end}}
    </main>
</body>
</html>
`
