// Package printing renders end-of-day Z-reports to PDF.
//
// A ZReportRenderer lays the report out as HTML sized for an 80mm receipt
// roll and hands it to a PDFRenderer. ChromedpRenderer prints through a
// headless Chrome, either launched locally or reached over DevTools:
//
//	pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
//	    RemoteURL: "ws://chrome:9222",
//	})
//	if err != nil {
//	    return err
//	}
//	defer pdf.Close()
//
//	body, err := printing.NewZReportRenderer(pdf, logger).RenderPDF(ctx, report)
package printing
