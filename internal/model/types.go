package model

// Core domain types for the solving service.

type ProblemIn struct {
    Name     string      `json:"name,omitempty"`
    Jobs     []JobIn     `json:"jobs"`
    Vehicles []VehicleIn `json:"vehicles"`
    Matrix   [][]int64   `json:"matrix"`
}

type JobIn struct {
    ID     string  `json:"id"`
    Index  int     `json:"index"`
    Amount []int64 `json:"amount"`
    // AllowedVehicles restricts which vehicles may serve this job; empty
    // means all of them.
    AllowedVehicles []string `json:"allowedVehicles,omitempty"`
}

type VehicleIn struct {
    ID       string  `json:"id"`
    Start    *int    `json:"start,omitempty"`
    End      *int    `json:"end,omitempty"`
    Capacity []int64 `json:"capacity"`
}

type ProblemOut struct {
    ID       string `json:"id"`
    TenantID string `json:"tenantId"`
    Name     string `json:"name,omitempty"`
    Jobs     int    `json:"jobs"`
    Vehicles int    `json:"vehicles"`
}

type SolveRequest struct {
    TenantID  string     `json:"tenantId"`
    ProblemID string     `json:"problemId,omitempty"`
    Problem   *ProblemIn `json:"problem,omitempty"`
    // Effort selects how deep the search goes: fast (candidate-pruned
    // sweeps only), balanced (adds full target scans) or full (adds the
    // exhaustive pass). Defaults to full.
    Effort string `json:"effort,omitempty"`
    // InitialRoutes seeds the search; when absent a greedy assignment is
    // built first.
    InitialRoutes [][]string `json:"initialRoutes,omitempty"`
    // SolveID lets clients pick the id used for the progress event stream
    // before the call returns; one is generated otherwise.
    SolveID  string `json:"solveId,omitempty"`
    LogSteps bool   `json:"logSteps,omitempty"`
}

type RouteOut struct {
    VehicleID string   `json:"vehicleId"`
    Jobs      []string `json:"jobs"`
    Cost      int64    `json:"cost"`
}

type Solution struct {
    ID         string       `json:"id"`
    SolveID    string       `json:"solveId,omitempty"`
    TenantID   string       `json:"tenantId"`
    ProblemID  string       `json:"problemId,omitempty"`
    Routes     []RouteOut   `json:"routes"`
    Unassigned []string     `json:"unassigned"`
    TotalCost  int64        `json:"totalCost"`
    Metrics    SolveMetrics `json:"metrics"`
}

type SolveMetrics struct {
    Sweeps         int   `json:"sweeps"`
    Relocates      int   `json:"relocates"`
    Exchanges      int   `json:"exchanges"`
    OrOpts         int   `json:"orOpts"`
    CrossExchanges int   `json:"crossExchanges"`
    JobsAdded      int   `json:"jobsAdded"`
    TSPAdoptions   int   `json:"tspAdoptions"`
    TotalGain      int64 `json:"totalGain"`
    TSPGain        int64 `json:"tspGain"`
    InitialCost    int64 `json:"initialCost"`
    FinalCost      int64 `json:"finalCost"`
    DurationMs     int64 `json:"durationMs"`
}

type SubscriptionRequest struct {
    TenantID string   `json:"tenantId"`
    URL      string   `json:"url"`
    Events   []string `json:"events"`
    Secret   string   `json:"secret"`
}

type Subscription struct {
    ID       string   `json:"id"`
    TenantID string   `json:"tenantId"`
    URL      string   `json:"url"`
    Events   []string `json:"events"`
    Secret   string   `json:"secret,omitempty"`
}
