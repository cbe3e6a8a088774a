package request

// PrintLinesRequest is the request body for printing raw text lines.
type PrintLinesRequest struct {
	Lines []string `json:"lines" binding:"required,min=1"`
}

// PrintTicketRequest is the request body for printing a full ticket from an
// embedded order document. The order is deliberately untyped: producers do
// not share a schema, the normalizer resolves the fields.
type PrintTicketRequest struct {
	Order   map[string]interface{} `json:"order" binding:"required"`
	LogoURL string                 `json:"logo_url"`
}

// PrintRemoteTicketRequest is the request body for printing a ticket
// resolved from a remote order-lookup URL.
type PrintRemoteTicketRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// PrintBarcodeRequest is the request body for printing a bare barcode.
type PrintBarcodeRequest struct {
	Code   string `json:"code" binding:"required"`
	Copies int    `json:"copies" binding:"omitempty,min=1,max=10"`
}
