package api

import (
	"dispatchboard/internal/auth"
	"dispatchboard/internal/cluster"
	"dispatchboard/internal/flags"
	"dispatchboard/internal/model"
	"dispatchboard/internal/team"
)

// loadView is a Load as the dashboard sees it. Rate fields shadow the
// embedded ones and are nil when the caller may not view them.
type loadView struct {
	model.Load
	EffectiveTeam string   `json:"effective_team,omitempty"`
	Price         *float64 `json:"price"`
	RPMAll        *float64 `json:"rpm_all"`
	RPM           *float64 `json:"rpm"`
}

func canViewLoad(p auth.Principal, l model.Load) bool {
	return p.CanViewTeam(team.Resolve(l.Team, l.CompanyName)) || p.CanViewDispatcher(l.Dispatcher)
}

func newLoadView(p auth.Principal, l model.Load) loadView {
	v := loadView{Load: l, EffectiveTeam: team.Resolve(l.Team, l.CompanyName)}
	if canViewLoad(p, l) {
		price, all, rpm := float64(l.Price), float64(l.RPMAll), l.RPM()
		v.Price, v.RPMAll, v.RPM = &price, &all, &rpm
	}
	return v
}

func loadViews(p auth.Principal, loads []model.Load) []loadView {
	out := make([]loadView, 0, len(loads))
	for _, l := range loads {
		out = append(out, newLoadView(p, l))
	}
	return out
}

// resultView is a flag result with the RPM hidden when not permitted.
type resultView struct {
	flags.Result
	RPM *float64 `json:"rpm"`
}

func resultViews(p auth.Principal, results []flags.Result, byID map[model.LoadID]model.Load) []resultView {
	out := make([]resultView, 0, len(results))
	for _, r := range results {
		v := resultView{Result: r}
		if l, ok := byID[r.ID]; ok && canViewLoad(p, l) {
			rpm := r.RPM
			v.RPM = &rpm
		}
		out = append(out, v)
	}
	return out
}

type clusterView struct {
	cluster.Summary
	AvgRPM *float64 `json:"avgRPM"`
}

func clusterViews(p auth.Principal, cs []cluster.Summary) []clusterView {
	out := make([]clusterView, 0, len(cs))
	for _, c := range cs {
		v := clusterView{Summary: c}
		if p.CanViewAny(c.Teams, c.Dispatchers) {
			avg := c.AvgRPM
			v.AvgRPM = &avg
		}
		out = append(out, v)
	}
	return out
}

type stateView struct {
	cluster.StateSummary
	AvgRPM *float64 `json:"avgRPM"`
}

func stateViews(p auth.Principal, ss []cluster.StateSummary) []stateView {
	out := make([]stateView, 0, len(ss))
	for _, s := range ss {
		v := stateView{StateSummary: s}
		if p.CanViewAny(s.Teams, s.Dispatchers) {
			avg := s.AvgRPM
			v.AvgRPM = &avg
		}
		out = append(out, v)
	}
	return out
}
