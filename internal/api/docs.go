package api

import (
    "encoding/base64"
    "encoding/json"
    "net/http"

    yaml "gopkg.in/yaml.v3"
)

// openAPISpec is the service contract, kept next to the handlers so the
// console never drifts from a file on disk.
const openAPISpec = `
openapi: 3.0.3
info:
  title: fleetopt API
  version: "1.0"
paths:
  /v1/problems:
    post:
      summary: Submit a problem (jobs, vehicles, cost matrix)
    get:
      summary: List problems
  /v1/problems/{id}:
    get:
      summary: Fetch a stored problem
  /v1/solve:
    post:
      summary: Run the local-search solver on a stored or inline problem
  /v1/solutions/{id}:
    get:
      summary: Fetch a stored solution
  /v1/solves/{id}/events/stream:
    get:
      summary: SSE stream of solve progress events
  /v1/solves/ws:
    get:
      summary: Websocket stream of solve progress events
  /v1/subscriptions:
    post:
      summary: Create a webhook subscription
    get:
      summary: List webhook subscriptions
  /v1/subscriptions/{id}:
    delete:
      summary: Delete a webhook subscription
  /v1/admin/webhook-deliveries:
    get:
      summary: List webhook deliveries
  /v1/admin/webhook-deliveries/{id}/retry:
    post:
      summary: Re-queue a webhook delivery
  /v1/admin/solve-metrics:
    get:
      summary: Stored solver metrics per problem and effort
  /healthz:
    get:
      summary: Liveness
  /readyz:
    get:
      summary: Readiness
  /metrics:
    get:
      summary: Prometheus metrics
`

// OpenAPIHandler serves the spec as JSON.
func (s *Server) OpenAPIHandler(w http.ResponseWriter, r *http.Request) {
    var obj map[string]any
    if err := yaml.Unmarshal([]byte(openAPISpec), &obj); err != nil {
        writeProblem(w, 500, "OpenAPI parse failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 200, obj)
}

// DocsHandler serves a small interactive console with the spec inlined.
func (s *Server) DocsHandler(w http.ResponseWriter, r *http.Request) {
    var obj map[string]any
    if err := yaml.Unmarshal([]byte(openAPISpec), &obj); err != nil {
        writeProblem(w, 500, "OpenAPI parse failed", err.Error(), r.URL.Path)
        return
    }
    js, _ := json.Marshal(obj)
    b64 := base64.StdEncoding.EncodeToString(js)
    html := `<!DOCTYPE html><html lang="en"><head>
    <title>API Console</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>body{margin:0} .topbar{display:none}</style>
    </head><body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
    const spec = JSON.parse(atob('` + b64 + `'));
    SwaggerUIBundle({ spec: spec, dom_id: '#swagger-ui', deepLinking: true });
    </script>
    </body></html>`
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write([]byte(html))
}
