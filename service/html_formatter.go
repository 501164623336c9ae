package service

import (
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/maruel/natural"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/version"
)

// HTMLData represents the data for the HTML template
type HTMLData struct {
	Title      string
	Version    string
	ExitStatus int
	Runs       []htmlRun
	Errors     []htmlError
}

type htmlRun struct {
	Source      string
	Instrument  string
	ReadLength  int
	View        string
	GeneratedAt string
	Duration    int64
	Passed      bool
	ExitStatus  int
	Fatal       int
	Warnings    int
	Sections    []htmlSection
}

// htmlSection is a lane, the reports without a lane, or the whole flat list
type htmlSection struct {
	Title  string
	Groups []htmlGroup
}

type htmlGroup struct {
	Checker string
	Lines   []domain.ReportLine
}

type htmlError struct {
	Runfolder string
	Message   string
}

// WriteHTML writes one check result as a standalone HTML page
func (f *OutputFormatterImpl) WriteHTML(result *domain.CheckResult, writer io.Writer) error {
	data := HTMLData{
		Title:      "seqgate QC Report",
		Version:    version.Version,
		ExitStatus: result.ExitStatus,
		Runs:       []htmlRun{newHTMLRun(result)},
	}
	return renderHTML(data, writer)
}

// WriteBatchHTML writes a batch of check results as one HTML page
func (f *OutputFormatterImpl) WriteBatchHTML(batch *BatchResultJSON, writer io.Writer) error {
	data := HTMLData{
		Title:      "seqgate Batch QC Report",
		Version:    version.Version,
		ExitStatus: batch.ExitStatus,
	}

	names := make([]string, 0, len(batch.Runs))
	for name := range batch.Runs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })
	for _, name := range names {
		data.Runs = append(data.Runs, newHTMLRun(batch.Runs[name]))
	}

	errNames := make([]string, 0, len(batch.Errors))
	for name := range batch.Errors {
		errNames = append(errNames, name)
	}
	sort.Slice(errNames, func(i, j int) bool { return natural.Less(errNames[i], errNames[j]) })
	for _, name := range errNames {
		data.Errors = append(data.Errors, htmlError{Runfolder: name, Message: batch.Errors[name]})
	}
	return renderHTML(data, writer)
}

func renderHTML(data HTMLData, writer io.Writer) error {
	funcMap := template.FuncMap{
		"statusClass": func(passed bool) string {
			if passed {
				return "status-pass"
			}
			return "status-fail"
		},
		"severityClass": func(s domain.Severity) string {
			if s == domain.SeverityError {
				return "severity-error"
			}
			return "severity-warning"
		},
	}

	tmpl := template.Must(template.New("report").Funcs(funcMap).Parse(htmlTemplate))
	return tmpl.Execute(writer, data)
}

func newHTMLRun(result *domain.CheckResult) htmlRun {
	summary := result.Output.Summary()
	run := htmlRun{
		Source:      result.Source,
		Instrument:  summary.Instrument,
		ReadLength:  summary.ReadLength,
		View:        result.View,
		GeneratedAt: result.GeneratedAt,
		Duration:    result.Duration,
		Passed:      result.Passed,
		ExitStatus:  result.ExitStatus,
	}

	count := func(lines []domain.ReportLine) {
		for _, l := range lines {
			if l.Severity == domain.SeverityError {
				run.Fatal++
			} else {
				run.Warnings++
			}
		}
	}

	switch out := result.Output.(type) {
	case *domain.LaneGroupedOutput:
		lanes := make([]int, 0, len(out.LaneReports))
		for lane := range out.LaneReports {
			lanes = append(lanes, lane)
		}
		sort.Ints(lanes)
		for _, lane := range lanes {
			section := htmlSection{Title: fmt.Sprintf("Lane %d", lane), Groups: groupLines(out.LaneReports[lane])}
			for _, g := range section.Groups {
				count(g.Lines)
			}
			run.Sections = append(run.Sections, section)
		}
		if len(out.OtherReports) > 0 {
			section := htmlSection{Title: "Other reports", Groups: groupLines(out.OtherReports)}
			for _, g := range section.Groups {
				count(g.Lines)
			}
			run.Sections = append(run.Sections, section)
		}
	case *domain.FlatOutput:
		count(out.Reports)
		if len(out.Reports) > 0 {
			run.Sections = append(run.Sections, htmlSection{
				Title:  "Reports",
				Groups: []htmlGroup{{Lines: out.Reports}},
			})
		}
	case *domain.FullOutput:
		lines := make([]domain.ReportLine, 0, len(out.Reports))
		for _, r := range out.Reports {
			lines = append(lines, domain.NewReportLine(r))
		}
		count(lines)
		if len(lines) > 0 {
			run.Sections = append(run.Sections, htmlSection{
				Title:  "Reports",
				Groups: []htmlGroup{{Lines: lines}},
			})
		}
	}
	return run
}

func groupLines(byChecker map[string][]domain.ReportLine) []htmlGroup {
	names := make([]string, 0, len(byChecker))
	for name := range byChecker {
		names = append(names, name)
	}
	sort.Strings(names)
	groups := make([]htmlGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, htmlGroup{Checker: name, Lines: byChecker[name]})
	}
	return groups
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f0f2f5;
            min-height: 100vh;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }
        .header, .run, .errors {
            background: white;
            border-radius: 10px;
            padding: 30px;
            margin-bottom: 20px;
            box-shadow: 0 10px 30px rgba(0,0,0,0.1);
        }
        .header h1 { color: #3f51b5; margin-bottom: 10px; }
        .subtitle { color: #666; font-size: 14px; }
        .status-badge {
            display: inline-block;
            padding: 6px 14px;
            border-radius: 16px;
            font-size: 13px;
            font-weight: 700;
            color: white;
        }
        .status-pass { background: #4caf50; }
        .status-fail { background: #f44336; }

        .metric-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .metric-card {
            background: #f8f9fa;
            padding: 16px;
            border-radius: 8px;
            text-align: center;
        }
        .metric-value { font-size: 26px; font-weight: bold; color: #3f51b5; }
        .metric-label { color: #666; margin-top: 5px; }

        h3 { margin: 20px 0 8px; color: #2c3e50; }
        h4 { margin: 12px 0 4px; color: #555; font-family: monospace; }
        ul.reports { list-style: none; }
        ul.reports li {
            padding: 6px 12px;
            border-left: 4px solid;
            margin-bottom: 6px;
            white-space: pre-wrap;
            background: #fafafa;
        }
        .severity-error { border-color: #f44336; }
        .severity-warning { border-color: #ff9800; }
        .table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        .table th, .table td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        .table th { background: #f8f9fa; font-weight: 600; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p class="subtitle">Version: {{.Version}} | Exit status: {{.ExitStatus}}</p>
        </div>

        {{range .Runs}}
        <div class="run">
            <h2>{{if .Source}}{{.Source}}{{else}}{{.Instrument}}{{end}}
                <span class="status-badge {{statusClass .Passed}}">{{if .Passed}}PASSED{{else}}FAILED{{end}}</span>
            </h2>
            <p class="subtitle">Generated: {{.GeneratedAt}} | Duration: {{.Duration}}ms | View: {{.View}}</p>

            <div class="metric-grid">
                <div class="metric-card">
                    <div class="metric-value">{{.Instrument}}</div>
                    <div class="metric-label">Instrument</div>
                </div>
                <div class="metric-card">
                    <div class="metric-value">{{.ReadLength}}</div>
                    <div class="metric-label">Read length</div>
                </div>
                <div class="metric-card">
                    <div class="metric-value">{{.Fatal}}</div>
                    <div class="metric-label">Errors</div>
                </div>
                <div class="metric-card">
                    <div class="metric-value">{{.Warnings}}</div>
                    <div class="metric-label">Warnings</div>
                </div>
            </div>

            {{range .Sections}}
            <h3>{{.Title}}</h3>
            {{range .Groups}}
            {{if .Checker}}<h4>{{.Checker}}</h4>{{end}}
            <ul class="reports">
                {{range .Lines}}<li class="{{severityClass .Severity}}">{{.Text}}</li>
                {{end}}
            </ul>
            {{end}}
            {{else}}
            <p>No QC findings.</p>
            {{end}}
        </div>
        {{end}}

        {{if .Errors}}
        <div class="errors">
            <h2>Runfolders that could not be checked</h2>
            <table class="table">
                <thead><tr><th>Runfolder</th><th>Error</th></tr></thead>
                <tbody>
                {{range .Errors}}<tr><td>{{.Runfolder}}</td><td>{{.Message}}</td></tr>
                {{end}}
                </tbody>
            </table>
        </div>
        {{end}}
    </div>
</body>
</html>
`
