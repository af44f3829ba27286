// Package analytics implements the pure performance estimators: OPR and
// friends by alliance least squares, EPA as a sequential rating, and the
// logistic match predictor. Nothing here does I/O; the same inputs
// always produce the same outputs.
package analytics

import (
	"math"
	"sort"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

const (
	// singularEps is the pivot magnitude below which the normal
	// equations are treated as rank deficient; ridgeLambda is then
	// added to the diagonal to make the solve proceed.
	singularEps = 1e-9
	ridgeLambda = 1e-3
)

// CalculateOPR estimates every team's scoring contribution for one
// event by solving the alliance participation least-squares system
// (M'M)x = M's. Matches without a full 2v2 roster are skipped; an
// event with no usable matches yields an empty map.
func CalculateOPR(matches []models.Match) map[int]*models.OPRResult {
	type observation struct {
		t1, t2 int
		own    models.PhaseScore
		opp    int
	}

	teamIndex := make(map[int]int)
	var teamNumbers []int
	index := func(team int) int {
		if i, ok := teamIndex[team]; ok {
			return i
		}
		i := len(teamNumbers)
		teamIndex[team] = i
		teamNumbers = append(teamNumbers, team)
		return i
	}

	var obs []observation
	played := make(map[int]int)
	for _, m := range matches {
		if !m.HasFullRoster() {
			continue
		}
		obs = append(obs,
			observation{t1: m.Red1, t2: m.Red2, own: m.Red, opp: m.Blue.Total},
			observation{t1: m.Blue1, t2: m.Blue2, own: m.Blue, opp: m.Red.Total},
		)
		for _, t := range [4]int{m.Red1, m.Red2, m.Blue1, m.Blue2} {
			index(t)
			played[t]++
		}
	}
	if len(obs) == 0 {
		return map[int]*models.OPRResult{}
	}

	// Normal equations: a[i][j] counts shared alliance appearances,
	// each right-hand side accumulates the alliance scores a team was
	// part of. Five RHS: total, auto, teleop, endgame, opponent total
	// (the last solves DPR from the same matrix).
	n := len(teamNumbers)
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
	}
	rhs := make([][]float64, 5)
	for k := range rhs {
		rhs[k] = make([]float64, n)
	}

	for _, o := range obs {
		i, j := teamIndex[o.t1], teamIndex[o.t2]
		a[i][i]++
		a[j][j]++
		a[i][j]++
		a[j][i]++
		for _, idx := range [2]int{i, j} {
			rhs[0][idx] += float64(o.own.Total)
			rhs[1][idx] += float64(o.own.Auto)
			rhs[2][idx] += float64(o.own.Teleop)
			rhs[3][idx] += float64(o.own.Endgame)
			rhs[4][idx] += float64(o.opp)
		}
	}

	sols, ok := solveNormal(a, rhs)
	if !ok {
		// Rank deficient: fewer independent alliance rows than teams,
		// typical early on day one. The ridge keeps estimates finite
		// and the solve deterministic.
		for i := 0; i < n; i++ {
			a[i][i] += ridgeLambda
		}
		if sols, ok = solveNormal(a, rhs); !ok {
			return map[int]*models.OPRResult{}
		}
	}

	results := make(map[int]*models.OPRResult, n)
	for team, i := range teamIndex {
		opr, dpr := sols[0][i], sols[4][i]
		results[team] = &models.OPRResult{
			TeamNumber:    team,
			OPR:           opr,
			DPR:           dpr,
			CCWM:          opr - dpr,
			AutoOPR:       sols[1][i],
			TeleopOPR:     sols[2][i],
			EndgameOPR:    sols[3][i],
			MatchesPlayed: played[team],
		}
	}
	return results
}

// solveNormal solves a*x = rhs[k] for every right-hand side at once by
// Gaussian elimination with partial pivoting on the augmented matrix.
// Returns ok=false when a pivot collapses below singularEps. The input
// slices are not modified.
func solveNormal(a [][]float64, rhs [][]float64) ([][]float64, bool) {
	n := len(a)
	m := len(rhs)
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, n+m)
		copy(aug[i], a[i])
		for k := 0; k < m; k++ {
			aug[i][n+k] = rhs[k][i]
		}
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < singularEps {
			return nil, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		for r := col + 1; r < n; r++ {
			factor := aug[r][col] / aug[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n+m; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	out := make([][]float64, m)
	for k := 0; k < m; k++ {
		x := make([]float64, n)
		for i := n - 1; i >= 0; i-- {
			sum := aug[i][n+k]
			for j := i + 1; j < n; j++ {
				sum -= aug[i][j] * x[j]
			}
			x[i] = sum / aug[i][i]
		}
		out[k] = x
	}
	return out, true
}

// RankByOPR flattens OPR results into a table sorted by OPR descending,
// ranks 1..N. Ties break on team number for stable output.
func RankByOPR(results map[int]*models.OPRResult) []models.TeamOPRRank {
	ranks := make([]models.TeamOPRRank, 0, len(results))
	for _, r := range results {
		ranks = append(ranks, models.TeamOPRRank{OPRResult: *r})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].OPR != ranks[j].OPR {
			return ranks[i].OPR > ranks[j].OPR
		}
		return ranks[i].TeamNumber < ranks[j].TeamNumber
	})
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}
