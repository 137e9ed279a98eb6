package decode

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpumodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate checks that the file at path is a structurally sound PDF and
// returns its page count. Validation is relaxed: recoverable deviations
// from the standard, common in scraped documents, are tolerated.
func Validate(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("validate %s: %w", path, err)
	}
	defer file.Close()

	conf := pdfcpumodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfcpumodel.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return 0, fmt.Errorf("validate %s: read context: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("validate %s: page count: %w", path, err)
	}
	return ctx.PageCount, nil
}
