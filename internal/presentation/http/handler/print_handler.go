package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/grillwerk/printgate/internal/application/service"
	"github.com/grillwerk/printgate/internal/presentation/http/dto/request"
	"github.com/grillwerk/printgate/internal/presentation/http/dto/response"
)

// PrintHandler handles printer-related HTTP requests.
type PrintHandler struct {
	printService *service.PrintService
}

// NewPrintHandler creates a new print handler.
func NewPrintHandler(printService *service.PrintService) *PrintHandler {
	return &PrintHandler{printService: printService}
}

// GetStatus returns the printer connectivity and effective configuration.
func (h *PrintHandler) GetStatus(c *gin.Context) {
	response.OK(c, "Printer status retrieved", h.printService.GetStatus())
}

// TestPrint sends the fixed self-test ticket to the printer.
func (h *PrintHandler) TestPrint(c *gin.Context) {
	if err := h.printService.TestPrint(); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Test ticket sent to printer", nil)
}

// PrintLines prints an arbitrary list of raw text lines.
func (h *PrintHandler) PrintLines(c *gin.Context) {
	var req request.PrintLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.printService.PrintLines(req.Lines); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lines sent to printer", gin.H{"lines": len(req.Lines)})
}

// PrintTicket composes and prints a full ticket from the supplied order document.
func (h *PrintHandler) PrintTicket(c *gin.Context) {
	var req request.PrintTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.printService.PrintTicket(c.Request.Context(), req.Order, req.LogoURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Ticket printed successfully", gin.H{"order": order})
}

// PrintRemoteTicket resolves an order from a lookup URL and prints its ticket.
func (h *PrintHandler) PrintRemoteTicket(c *gin.Context) {
	var req request.PrintRemoteTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.printService.PrintRemoteTicket(c.Request.Context(), req.URL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Ticket printed successfully", gin.H{"order": order})
}

// PrintBarcode prints one or more copies of a bare barcode.
func (h *PrintHandler) PrintBarcode(c *gin.Context) {
	var req request.PrintBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.printService.PrintBarcode(req.Code, req.Copies); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Barcode sent to printer", gin.H{"code": req.Code, "copies": req.Copies})
}
