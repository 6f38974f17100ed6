/*
Package game
File: views.go
Description:
    Read-only projections over a State snapshot: the held releases, the
    portfolio valuation, growth rankings, the fan leaderboard and the token
    bundles. They are pure functions and are recomputed on every call.
*/

package game

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ReleaseRef is a release together with the artist that owns it.
type ReleaseRef struct {
	Release
	ArtistID   int    `json:"artist_id"`
	ArtistName string `json:"artist_name"`
}

// Growth is the token value change since issue, in percent.
func Growth(r Release) decimal.Decimal {
	if r.InitialTokenValue.IsZero() {
		return decimal.Zero
	}
	return r.TokenValue.Sub(r.InitialTokenValue).Div(r.InitialTokenValue).Mul(hundred)
}

// GoalProgress is the share of the monthly play goal reached, in percent.
func GoalProgress(r Release) float64 {
	if r.MonthlyGoal <= 0 {
		return 0
	}
	return float64(r.CurrentPlays) / float64(r.MonthlyGoal) * 100
}

// VoteShare returns the rounded percentage of votes for each mix.
func VoteShare(v ReleaseVersions) (a, b int) {
	total := v.A.Votes + v.B.Votes
	if total == 0 {
		return 0, 0
	}
	pct := func(n int) int {
		return int(decimal.NewFromInt(int64(n)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(0).IntPart())
	}
	return pct(v.A.Votes), pct(v.B.Votes)
}

// AllReleases flattens the catalog in traversal order.
func AllReleases(st State) []ReleaseRef {
	var out []ReleaseRef
	for _, a := range st.Artists {
		for _, r := range a.Releases {
			out = append(out, ReleaseRef{Release: r, ArtistID: a.ID, ArtistName: a.Name})
		}
	}
	return out
}

// InvestedReleases lists the releases the user holds, in catalog order.
func InvestedReleases(st State) []ReleaseRef {
	var out []ReleaseRef
	for _, ref := range AllReleases(st) {
		if st.User.Investments[ref.ID] > 0 {
			out = append(out, ref)
		}
	}
	return out
}

// Appreciated lists held releases whose value has risen above issue price.
func Appreciated(st State) []ReleaseRef {
	var out []ReleaseRef
	for _, ref := range InvestedReleases(st) {
		if ref.TokenValue.GreaterThan(ref.InitialTokenValue) {
			out = append(out, ref)
		}
	}
	return out
}

// GrowingRelease pairs a release with its growth figure.
type GrowingRelease struct {
	ReleaseRef
	Growth decimal.Decimal `json:"growth"`
}

// TopGrowing ranks every release by growth, best first, and keeps n.
func TopGrowing(st State, n int) []GrowingRelease {
	all := AllReleases(st)
	out := make([]GrowingRelease, len(all))
	for i, ref := range all {
		out[i] = GrowingRelease{ReleaseRef: ref, Growth: Growth(ref.Release)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Growth.GreaterThan(out[j].Growth)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Holding is one line of the portfolio.
type Holding struct {
	ReleaseRef
	Tokens        int             `json:"tokens"`
	Cost          decimal.Decimal `json:"cost"`  // Tokens at issue price
	Value         decimal.Decimal `json:"value"` // Tokens at current price
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_pct"`
}

// Portfolio is the simulated valuation of everything the user holds.
type Portfolio struct {
	Holdings      []Holding       `json:"holdings"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_pct"`
}

func pctOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(1)
}

// ComputePortfolio values every held release at issue and current price.
func ComputePortfolio(st State) Portfolio {
	p := Portfolio{
		Holdings:   []Holding{},
		TotalCost:  decimal.Zero,
		TotalValue: decimal.Zero,
	}
	for _, ref := range InvestedReleases(st) {
		tokens := st.User.Investments[ref.ID]
		qty := decimal.NewFromInt(int64(tokens))
		h := Holding{
			ReleaseRef: ref,
			Tokens:     tokens,
			Cost:       ref.InitialTokenValue.Mul(qty),
			Value:      ref.TokenValue.Mul(qty),
		}
		h.ProfitLoss = h.Value.Sub(h.Cost)
		h.ProfitLossPct = pctOf(h.ProfitLoss, h.Cost)

		p.Holdings = append(p.Holdings, h)
		p.TotalCost = p.TotalCost.Add(h.Cost)
		p.TotalValue = p.TotalValue.Add(h.Value)
	}
	p.ProfitLoss = p.TotalValue.Sub(p.TotalCost)
	p.ProfitLossPct = pctOf(p.ProfitLoss, p.TotalCost)
	return p
}

// Leaderboard orders fans by plays, most first, and keeps n.
func Leaderboard(fans []Fan, n int) []Fan {
	out := append([]Fan(nil), fans...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GenreGroup is the set of artists sharing a genre.
type GenreGroup struct {
	Genre   string   `json:"genre"`
	Artists []Artist `json:"artists"`
}

// GroupByGenre buckets artists by genre, in order of first appearance.
func GroupByGenre(st State) []GenreGroup {
	var out []GenreGroup
	pos := make(map[string]int)
	for _, a := range st.Artists {
		i, ok := pos[a.Genre]
		if !ok {
			i = len(out)
			pos[a.Genre] = i
			out = append(out, GenreGroup{Genre: a.Genre})
		}
		out[i].Artists = append(out[i].Artists, a)
	}
	return out
}

// TokenPackage is a purchasable bundle of tokens.
type TokenPackage struct {
	Amount int             `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

// TokenPackages returns the 1, 5 and 10 token bundles. Larger bundles are
// discounted 5% and 10%.
func TokenPackages(unitPrice decimal.Decimal) []TokenPackage {
	bundle := func(n int64, discount string) TokenPackage {
		factor := decimal.NewFromInt(1).Sub(decimal.RequireFromString(discount))
		return TokenPackage{
			Amount: int(n),
			Price:  unitPrice.Mul(decimal.NewFromInt(n)).Mul(factor).Round(2),
		}
	}
	return []TokenPackage{
		bundle(1, "0"),
		bundle(5, "0.05"),
		bundle(10, "0.10"),
	}
}
