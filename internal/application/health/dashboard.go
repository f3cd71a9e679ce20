package health

import (
	"html/template"
	"io"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Car listings · Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font-family: sans-serif; background: #f8f9fa; color: #173e35; margin: 2rem; }
    .card { background: #fff; border-radius: 8px; padding: 1rem 1.5rem; margin-bottom: 1rem; }
    .ok { color: #007473; } .issue, .error, .disconnected { color: #b42318; }
    td { padding: .2rem 1rem .2rem 0; }
  </style>
</head>
<body>
  <h1>Status: <span class="{{.Status}}">{{.Status}}</span></h1>
  <div class="card">
    <h2>Traffic</h2>
    <table>
      <tr><td>Requests</td><td>{{.Traffic.TotalRequests}}</td></tr>
      <tr><td>Failed</td><td>{{.Traffic.FailedCount}}</td></tr>
      <tr><td>Success rate</td><td>{{.Traffic.SuccessRate}}%</td></tr>
      <tr><td>Avg response</td><td>{{.Traffic.AvgResponseTime}} ms</td></tr>
      <tr><td>Last request</td><td>{{.LastMethod}} {{.LastPath}}</td></tr>
    </table>
  </div>
  <div class="card">
    <h2>Dependencies</h2>
    <table>
      {{range .Deps}}<tr><td>{{.Name}}</td><td class="{{.Status}}">{{.Status}}</td><td>{{if .PingMs}}{{.PingMs}} ms{{end}}</td></tr>
      {{end}}
    </table>
  </div>
  <div class="card">
    <h2>Runtime</h2>
    <table>
      <tr><td>Uptime</td><td>{{.Runtime.UptimeSeconds}} s</td></tr>
      <tr><td>Goroutines</td><td>{{.Runtime.Goroutines}}</td></tr>
      <tr><td>Heap</td><td>{{.Runtime.Memory.HeapUsed}} MB</td></tr>
      <tr><td>Go</td><td>{{.Runtime.GoVersion}} ({{.Runtime.Platform}})</td></tr>
    </table>
  </div>
</body>
</html>
`))

type dashboardDep struct {
	Name   string
	Status string
	PingMs interface{}
}

type dashboardView struct {
	CollectResult
	LastMethod string
	LastPath   string
	Deps       []dashboardDep
}

// RenderDashboard writes the human-readable status page for GET /health.
func RenderDashboard(w io.Writer, health CollectResult) error {
	v := dashboardView{CollectResult: health, LastMethod: "-", LastPath: "-"}
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if s, ok := m["method"].(string); ok {
			v.LastMethod = s
		}
		if s, ok := m["path"].(string); ok {
			v.LastPath = s
		}
	}
	for name, dep := range health.Dependencies {
		v.Deps = append(v.Deps, dashboardDep{Name: name, Status: dep.Status, PingMs: dep.PingMs})
	}
	sort.Slice(v.Deps, func(i, j int) bool { return v.Deps[i].Name < v.Deps[j].Name })
	return dashboardTmpl.Execute(w, v)
}
