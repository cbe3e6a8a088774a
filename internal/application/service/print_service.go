package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/grillwerk/printgate/internal/config"
	"github.com/grillwerk/printgate/internal/domain/entity"
	"github.com/grillwerk/printgate/pkg/apperror"
	"github.com/grillwerk/printgate/pkg/fetch"
	"github.com/grillwerk/printgate/pkg/printer"
	"github.com/grillwerk/printgate/pkg/raster"
)

// PrintService turns order documents into printed tickets. Each request is
// one fire-and-forget job: received, composed, transmitted, done. Nothing is
// queued, persisted or retried; a failed job is reported and must be
// resubmitted by the caller.
type PrintService struct {
	printer printer.Printer
	fetcher *fetch.Client
	cfg     *config.Config
	log     *zap.Logger
}

// NewPrintService creates a print service.
func NewPrintService(p printer.Printer, fetcher *fetch.Client, cfg *config.Config, log *zap.Logger) *PrintService {
	return &PrintService{
		printer: p,
		fetcher: fetcher,
		cfg:     cfg,
		log:     log,
	}
}

// Status reports the gateway's effective print configuration.
type Status struct {
	Configured     bool                 `json:"configured"`
	Connected      bool                 `json:"connected"`
	Type           string               `json:"type"`
	PrinterAddress string               `json:"printer_address,omitempty"`
	LineWidth      int                  `json:"line_width"`
	Logo           config.LogoConfig    `json:"logo"`
	Raster         config.RasterConfig  `json:"raster"`
	Barcode        config.BarcodeConfig `json:"barcode"`
}

// GetStatus returns printer connectivity and the configured parameters.
func (s *PrintService) GetStatus() *Status {
	return &Status{
		Configured:     s.cfg.Printer.Type != "none" && s.cfg.Printer.Type != "",
		Connected:      s.printer.IsConnected(),
		Type:           s.cfg.Printer.Type,
		PrinterAddress: s.cfg.Printer.Address,
		LineWidth:      s.cfg.Printer.Width,
		Logo:           s.cfg.Logo,
		Raster:         s.cfg.Raster,
		Barcode:        s.cfg.Barcode,
	}
}

// TestPrint sends the fixed self-test ticket.
func (s *PrintService) TestPrint() error {
	return s.transmit(ComposeSelfTest(s.layout()), "self-test")
}

// PrintLines sends raw text lines followed by a cut.
func (s *PrintService) PrintLines(lines []string) error {
	return s.transmit(ComposeLines(lines, s.cfg.Printer.Width), "lines")
}

// PrintBarcode sends copies of a bare barcode block for the given identifier.
func (s *PrintService) PrintBarcode(code string, copies int) error {
	return s.transmit(ComposeBarcode(code, copies, s.layout()), "barcode")
}

// PrintTicket normalizes an order document, composes the full ticket and
// transmits it. logoURL overrides the configured logo source for this job.
// A logo that cannot be fetched or decoded degrades to a text header; it
// never fails the job.
func (s *PrintService) PrintTicket(ctx context.Context, doc map[string]interface{}, logoURL string) (*entity.NormalizedOrder, error) {
	order, err := NormalizeOrder(doc)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	logo := s.fetchLogo(ctx, logoURL)
	data := ComposeTicket(order, logo, s.layout())

	if err := s.transmit(data, "ticket"); err != nil {
		return order, err
	}

	s.log.Info("ticket printed",
		zap.String("order_id", order.ID),
		zap.Float64("grand_total", order.Pricing.GrandTotal),
		zap.Int("items", len(order.Items)),
		zap.Bool("logo", logo != nil),
	)
	return order, nil
}

// PrintRemoteTicket resolves an order from a lookup URL: the identifier is
// the last path segment, the URL itself returns the producer's order list.
// Unlike the logo, any failure here fails the whole job.
func (s *PrintService) PrintRemoteTicket(ctx context.Context, lookupURL string) (*entity.NormalizedOrder, error) {
	id, err := orderIDFromURL(lookupURL)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	doc, err := s.fetchRemoteOrder(ctx, lookupURL, id)
	if err != nil {
		return nil, err
	}
	return s.PrintTicket(ctx, doc, "")
}

func orderIDFromURL(lookupURL string) (string, error) {
	u, err := url.Parse(lookupURL)
	if err != nil {
		return "", fmt.Errorf("invalid lookup URL: %v", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("lookup URL carries no order identifier")
	}
	return id, nil
}

// fetchRemoteOrder downloads the order list and picks the document whose
// identifier matches. Producers return either a bare array or an object
// wrapping one under "orders" or "data".
func (s *PrintService) fetchRemoteOrder(ctx context.Context, lookupURL, id string) (map[string]interface{}, error) {
	var payload interface{}
	if err := s.fetcher.JSON(ctx, lookupURL, &payload); err != nil {
		s.log.Warn("remote order lookup failed", zap.String("url", lookupURL), zap.Error(err))
		return nil, apperror.NewBadGatewayError("order lookup failed: " + err.Error())
	}

	var list []interface{}
	switch v := payload.(type) {
	case []interface{}:
		list = v
	case map[string]interface{}:
		wrapper := orderDoc(v)
		list = wrapper.list("orders", "data")
		if list == nil {
			// a single order object is also accepted
			if wrapper.str(idAliases...) == id {
				return v, nil
			}
		}
	}

	for _, raw := range list {
		doc := entry(raw)
		if doc == nil {
			continue
		}
		if doc.str(idAliases...) == id {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFoundError("Order " + id)
}

// fetchLogo downloads and rasterizes the logo, returning nil on any failure.
func (s *PrintService) fetchLogo(ctx context.Context, override string) *raster.Image {
	if !s.cfg.Logo.Enabled {
		return nil
	}
	logoURL := s.cfg.Logo.URL
	if override != "" {
		logoURL = override
	}
	if logoURL == "" {
		return nil
	}

	data, err := s.fetcher.Bytes(ctx, logoURL)
	if err != nil {
		s.log.Warn("logo fetch failed, printing text header", zap.String("url", logoURL), zap.Error(err))
		return nil
	}
	img, err := raster.FromBMP(data, s.cfg.Raster.Options())
	if err != nil {
		s.log.Warn("logo decode failed, printing text header", zap.String("url", logoURL), zap.Error(err))
		return nil
	}
	return img
}

// transmit hands a composed byte stream to the transport.
func (s *PrintService) transmit(data []byte, kind string) error {
	if err := s.printer.Print(data); err != nil {
		s.log.Error("print failed", zap.String("kind", kind), zap.Int("bytes", len(data)), zap.Error(err))
		return apperror.NewUnavailableError("print failed: " + err.Error())
	}
	s.log.Debug("print job transmitted", zap.String("kind", kind), zap.Int("bytes", len(data)))
	return nil
}

func (s *PrintService) layout() TicketLayout {
	return TicketLayout{
		Width:         s.cfg.Printer.Width,
		StoreName:     s.cfg.Store.Name,
		HeaderLines:   s.cfg.Store.HeaderLines,
		BarcodeHeight: s.cfg.Barcode.Height,
		BarcodeModule: s.cfg.Barcode.ModuleWidth,
	}
}
