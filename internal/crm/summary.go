package crm

// Summarize recomputes the aggregate view from scratch. Stages with no deals
// still appear with zero counts; deals whose stage is no longer configured
// count toward the totals but not toward any stage bucket.
func Summarize(stages []string, deals []Deal) Summary {
	summary := Summary{ByStage: make(map[string]StageSummary, len(stages))}
	for _, stage := range stages {
		summary.ByStage[stage] = StageSummary{}
	}
	for _, deal := range deals {
		summary.TotalDeals++
		summary.TotalValue += deal.Value
		if bucket, ok := summary.ByStage[deal.Stage]; ok {
			bucket.Count++
			bucket.Value += deal.Value
			summary.ByStage[deal.Stage] = bucket
		}
	}
	return summary
}
