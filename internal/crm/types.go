package crm

// Deal is the wire representation of a sales opportunity.
type Deal struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Value             float64           `json:"value"`
	Stage             string            `json:"stage"`
	ContactID         string            `json:"contact_id,omitempty"`
	ContactName       string            `json:"contact_name,omitempty"`
	OwnerID           string            `json:"owner_id,omitempty"`
	OwnerName         string            `json:"owner_name,omitempty"`
	Description       string            `json:"description,omitempty"`
	Priority          string            `json:"priority"`
	ExpectedCloseDate string            `json:"expected_close_date,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	CustomFields      map[string]string `json:"custom_fields,omitempty"`
	LostReason        string            `json:"lost_reason,omitempty"`
	Position          int               `json:"position"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

// StageSummary aggregates the deals currently sitting in one stage.
type StageSummary struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Summary is the pipeline-wide aggregate returned alongside a full listing.
type Summary struct {
	TotalDeals int                     `json:"total_deals"`
	TotalValue float64                 `json:"total_value"`
	ByStage    map[string]StageSummary `json:"by_stage"`
}

// PipelineSnapshot is the full board state: ordered stages, every deal, and
// the server-computed summary.
type PipelineSnapshot struct {
	Stages  []string `json:"stages"`
	Deals   []Deal   `json:"deals"`
	Summary Summary  `json:"summary"`
}

// CreateDealRequest carries the fields for a new deal. The server assigns the
// id and timestamps.
type CreateDealRequest struct {
	Title             string            `json:"title"`
	Value             float64           `json:"value"`
	Stage             string            `json:"stage"`
	ContactID         string            `json:"contact_id,omitempty"`
	ContactName       string            `json:"contact_name,omitempty"`
	Description       string            `json:"description,omitempty"`
	Priority          string            `json:"priority"`
	ExpectedCloseDate string            `json:"expected_close_date,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	CustomFields      map[string]string `json:"custom_fields,omitempty"`
	Position          int               `json:"position"`
}

// UpdateDealRequest is a partial update; nil fields are left untouched.
type UpdateDealRequest struct {
	Title             *string           `json:"title,omitempty"`
	Value             *float64          `json:"value,omitempty"`
	ContactID         *string           `json:"contact_id,omitempty"`
	ContactName       *string           `json:"contact_name,omitempty"`
	Description       *string           `json:"description,omitempty"`
	Priority          *string           `json:"priority,omitempty"`
	ExpectedCloseDate *string           `json:"expected_close_date,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	CustomFields      map[string]string `json:"custom_fields,omitempty"`
	LostReason        *string           `json:"lost_reason,omitempty"`
	Position          *int              `json:"position,omitempty"`
}

// ApplyTo overlays the set fields of the request onto a copy of the deal.
func (r UpdateDealRequest) ApplyTo(deal Deal) Deal {
	if r.Title != nil {
		deal.Title = *r.Title
	}
	if r.Value != nil {
		deal.Value = *r.Value
	}
	if r.ContactID != nil {
		deal.ContactID = *r.ContactID
	}
	if r.ContactName != nil {
		deal.ContactName = *r.ContactName
	}
	if r.Description != nil {
		deal.Description = *r.Description
	}
	if r.Priority != nil {
		deal.Priority = *r.Priority
	}
	if r.ExpectedCloseDate != nil {
		deal.ExpectedCloseDate = *r.ExpectedCloseDate
	}
	if r.Tags != nil {
		deal.Tags = append([]string(nil), r.Tags...)
	}
	if r.CustomFields != nil {
		fields := make(map[string]string, len(r.CustomFields))
		for k, v := range r.CustomFields {
			fields[k] = v
		}
		deal.CustomFields = fields
	}
	if r.LostReason != nil {
		deal.LostReason = *r.LostReason
	}
	if r.Position != nil {
		deal.Position = *r.Position
	}
	return deal
}

// StringPtr is a convenience for building partial update requests.
func StringPtr(s string) *string { return &s }

// Float64Ptr is a convenience for building partial update requests.
func Float64Ptr(f float64) *float64 { return &f }

// IntPtr is a convenience for building partial update requests.
func IntPtr(i int) *int { return &i }
