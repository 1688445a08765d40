package domain

// PrizeTier describes the odds of one 6/45 prize rank.
type PrizeTier struct {
	Rank      int    `json:"rank"`
	Condition string `json:"condition"`
	// Odds is one in Odds tickets.
	Odds int `json:"odds"`
}

// PrizeTiers lists every rank of the 6/45 game.
var PrizeTiers = []PrizeTier{
	{Rank: 1, Condition: "6 numbers", Odds: 8_145_060},
	{Rank: 2, Condition: "5 numbers + bonus", Odds: 1_357_510},
	{Rank: 3, Condition: "5 numbers", Odds: 35_724},
	{Rank: 4, Condition: "4 numbers", Odds: 733},
	{Rank: 5, Condition: "3 numbers", Odds: 45},
}
