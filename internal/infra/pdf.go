package infra

// pdf.go — withholding receipt rendering using go-pdf/fpdf.
// Letter-size page with:
//   - agent (empresa) and subject (cliente) identification
//   - receipt number, kind and issue date
//   - invoice reference with frozen BCV rate
//   - base, percentage and withheld amount in USD and BS
//
// The output file is saved to storagePath/<numero_comprobante>.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"novaadm/internal/model"
	"novaadm/internal/moneda"

	"github.com/go-pdf/fpdf"
)

// ComprobanteRetencion gathers what the receipt prints.
type ComprobanteRetencion struct {
	Retencion *model.Retencion
	Venta     *model.Venta
	Empresa   *model.Empresa
	Cliente   *model.Cliente
}

// GenerarRetencionPDF renders the receipt and returns the path of the written file.
func GenerarRetencionPDF(c ComprobanteRetencion, storagePath string) (string, error) {
	if c.Retencion == nil || c.Venta == nil {
		return "", fmt.Errorf("pdf: retencion y venta son requeridas")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	ret, venta := c.Retencion, c.Venta
	filePath := filepath.Join(storagePath, ret.NumeroComprobante+".pdf")

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(fmt.Sprintf("Comprobante de Retención %s", ret.Tipo)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, ret.NumeroComprobante, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, tr("Fecha de emisión: ")+ret.FechaEmision.Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Parties ──────────────────────────────────────────────────────────────
	half := contentW / 2
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(half, 6, tr("Agente de retención"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, tr("Sujeto retenido"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	agente, agenteRIF := "", ""
	if c.Empresa != nil {
		agente, agenteRIF = c.Empresa.RazonSocial, c.Empresa.RIF
	}
	sujeto, sujetoRIF := "", ""
	if c.Cliente != nil {
		sujeto, sujetoRIF = c.Cliente.RazonSocial, c.Cliente.RIF
	}
	pdf.CellFormat(half, 5, tr(agente), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 5, tr(sujeto), "", 1, "L", false, 0, "")
	pdf.CellFormat(half, 5, "RIF: "+agenteRIF, "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 5, "RIF: "+sujetoRIF, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Invoice ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, "Factura", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	fila := func(label, valor string) {
		pdf.CellFormat(contentW*0.6, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 5, valor, "", 1, "R", false, 0, "")
	}
	fila("Número de factura", venta.NumeroFactura)
	fila("Fecha de factura", venta.FechaEmision.Format("02/01/2006"))
	fila("Subtotal (USD)", venta.SubtotalUSD.StringFixed(2))
	fila("IVA (USD)", venta.IVAUSD.StringFixed(2))
	fila("Total (USD)", venta.TotalUSD.StringFixed(2))
	fila("Tasa BCV", venta.TasaBCV.StringFixed(4))
	pdf.Ln(4)

	// ── Withholding ──────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, tr("Retención"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if ret.TipoServicio != nil {
		fila("Tipo de servicio", *ret.TipoServicio)
	}
	fila("Base imponible (USD)", ret.BaseImponible.StringFixed(2))
	fila("Monto sujeto a retención (USD)", ret.MontoBase.StringFixed(2))
	fila("Porcentaje", ret.Porcentaje.StringFixed(2)+" %")

	pdf.SetFont("Helvetica", "B", 10)
	fila("Monto retenido (USD)", ret.MontoRetenido.StringFixed(2))
	if venta.TasaBCV.IsPositive() {
		fila("Monto retenido (BS)", moneda.ABs(ret.MontoRetenido, venta.TasaBCV).StringFixed(2))
	}

	if ret.Estado == model.RetencionAnulada {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(contentW, 10, "ANULADA", "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(20)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(half, 5, "Firma y sello del agente", "T", 0, "C", false, 0, "")
	pdf.CellFormat(half, 5, tr("Recibido por"), "T", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
