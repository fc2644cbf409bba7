// Package catalog holds the fixed location list and the random pickers used
// when a round starts.
package catalog

import (
	"errors"
	"math/rand/v2"

	"github.com/samber/lo"
)

// Default 内置地点列表
var Default = []string{
	"Restaurant", "School", "Hospital", "Bank", "Airport",
	"Beach", "Casino", "Circus", "Embassy", "Hotel",
	"Military Base", "Movie Studio", "Museum", "Ocean Liner",
	"Passenger Train", "Pirate Ship", "Polar Station", "Police Station",
	"Space Station", "Submarine", "Supermarket", "Theater", "University",
}

var (
	ErrNoPlayers   = errors.New("catalog: no players to pick from")
	ErrNoLocations = errors.New("catalog: location list is empty")
)

// Resolve 返回配置的地点列表，为空时使用内置列表
func Resolve(custom []string) []string {
	locations := lo.Uniq(lo.Filter(custom, func(l string, _ int) bool { return l != "" }))
	if len(locations) == 0 {
		return Default
	}
	return locations
}

// PickSpy 从玩家中均匀随机选出卧底
func PickSpy(rng *rand.Rand, players []string) (string, error) {
	if len(players) == 0 {
		return "", ErrNoPlayers
	}
	return players[rng.IntN(len(players))], nil
}

// PickLocation 从地点列表中均匀随机选出本局地点
func PickLocation(rng *rand.Rand, locations []string) (string, error) {
	if len(locations) == 0 {
		return "", ErrNoLocations
	}
	return locations[rng.IntN(len(locations))], nil
}

// Contains 判断地点是否在列表中
func Contains(locations []string, location string) bool {
	return lo.Contains(locations, location)
}
