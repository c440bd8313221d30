package dto

// TransactionInput is a transaction as submitted by a client. Amount is the
// signed value; the server derives the unsigned magnitude and the sign state
// from it. Date is free-form text and goes through the same parser as file
// imports.
type TransactionInput struct {
	ID     string  `json:"id,omitempty"`
	Date   string  `json:"date,omitempty"`
	Amount float64 `json:"amount"`
	Ref    string  `json:"ref,omitempty"`
	Desc   string  `json:"desc,omitempty"`
}

// ReconcileRequest carries both statements plus the matching parameters.
// ToleranceDays is a pointer so "absent" and "zero" stay distinguishable.
type ReconcileRequest struct {
	Bank            []TransactionInput `json:"bank"`
	Book            []TransactionInput `json:"book"`
	ToleranceDays   *int               `json:"tolerance_days,omitempty"`
	RequireRefMatch bool               `json:"require_ref_match,omitempty"`
}

// ManualMatchRequest selects residual records on each side for a manual
// pairing. Confirmations counts how many times the client has already
// confirmed an unequal match.
type ManualMatchRequest struct {
	BankIDs       []string `json:"bank_ids"`
	BookIDs       []string `json:"book_ids"`
	Confirmations int      `json:"confirmations"`
}

// MatchActionRequest names a single match for unmatch, approve or reject.
// All true applies the action to every match (unmatch) or every match of
// Kind (approve).
type MatchActionRequest struct {
	MatchID string `json:"match_id,omitempty"`
	All     bool   `json:"all,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// SuggestRequest asks for a ranked ordering of one side's residuals against
// a tentative selection on the other side.
type SuggestRequest struct {
	Side        string   `json:"side"`
	SelectedIDs []string `json:"selected_ids"`
}

// ArchiveRequest carries records to archive or to check against the archive.
type ArchiveRequest struct {
	Side  string             `json:"side"`
	Items []TransactionInput `json:"items"`
}
