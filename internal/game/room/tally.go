package room

import "slices"

// TallyResult 计票结果
type TallyResult struct {
	Counts  map[string]int `json:"counts"`  // 被投玩家 -> 票数
	Max     int            `json:"max"`     // 最高票数
	Leaders []string       `json:"leaders"` // 得票最高的玩家（已排序）
}

// Tally 统计选票，结果与选票插入顺序无关
func Tally(votes map[string]*Ballot) TallyResult {
	result := TallyResult{Counts: make(map[string]int, len(votes))}
	for _, b := range votes {
		result.Counts[b.Target]++
	}
	for target, n := range result.Counts {
		switch {
		case n > result.Max:
			result.Max = n
			result.Leaders = []string{target}
		case n == result.Max:
			result.Leaders = append(result.Leaders, target)
		}
	}
	slices.Sort(result.Leaders)
	return result
}

// Unique 是否有唯一最高票者（平票不淘汰）
func (t TallyResult) Unique() (string, bool) {
	if len(t.Leaders) != 1 {
		return "", false
	}
	return t.Leaders[0], true
}
