// service/scope_evaluator.go
package service

import "github.com/apipatb/earning-sub014/model"

// EvaluateScope decides whether a grant's declared scope covers the request's
// target. Pure and side-effect free: team membership is resolved by the caller
// and arrives as precomputed team-id sets in the request context.
func EvaluateScope(scope model.Scope, reqCtx model.RequestContext) bool {
	switch scope {
	case model.ScopeAll:
		return true
	case model.ScopeOwn:
		return reqCtx.TargetOwnerID == reqCtx.SubjectID
	case model.ScopeTeam:
		return sharesTeam(reqCtx.SubjectTeamIDs, reqCtx.TargetTeamIDs)
	default:
		return false
	}
}

func sharesTeam(subjectTeams, targetTeams []string) bool {
	for _, st := range subjectTeams {
		for _, tt := range targetTeams {
			if st == tt {
				return true
			}
		}
	}
	return false
}
