package portal

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
	"github.com/integralabs/integra-harvester/internal/metrics"
	"github.com/integralabs/integra-harvester/internal/progress"
)

// FetchDetails fetches one detail document per stub with total in-flight
// requests bounded by the configured ceiling. Per-stub failures are reported
// on the DetailResult; one broken advisor never cancels the others.
//
// Results come back in submission order. The progress callback fires in
// completion order from pool goroutines.
func (c *Client) FetchDetails(
	ctx context.Context,
	code string,
	inst config.Institution,
	stubs []AdvisorStub,
	onProgress ProgressFunc,
) []DetailResult {
	if len(stubs) == 0 {
		return nil
	}
	total := len(stubs)
	if onProgress != nil {
		onProgress(0, total)
	}

	pool := pond.NewResultPool[DetailResult](c.maxConcurrent)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	var completed atomic.Int64
	for _, stub := range stubs {
		stub := stub
		group.Submit(func() DetailResult {
			res := c.fetchDetail(ctx, code, inst, stub)
			done := int(completed.Add(1))
			c.logger.Debug("detail fetched",
				zap.String("institution", code),
				zap.String("slug", stub.Slug),
				zap.Int("completed", done),
				zap.Int("total", total),
				zap.Duration("elapsed", res.Elapsed),
				zap.Error(res.Err),
			)
			if onProgress != nil {
				onProgress(done, total)
			}
			return res
		})
	}

	results, err := group.Wait()
	if err != nil {
		// Group errors only surface on context cancellation; individual
		// fetch failures live on the results themselves.
		c.logger.Warn("detail fetch group interrupted",
			zap.String("institution", code),
			zap.Error(err),
		)
	}
	return results
}

func (c *Client) fetchDetail(
	ctx context.Context,
	code string,
	inst config.Institution,
	stub AdvisorStub,
) DetailResult {
	url := fmt.Sprintf("%s/api/portfolio/pessoa/s/%s", baseURL(inst), stub.Slug)
	startedAt := time.Now()

	var doc detailDocument
	if err := c.getJSON(ctx, url, &doc); err != nil {
		metrics.ObserveFetchFailure(code, string(progress.PhaseDetails))
		return DetailResult{Slug: stub.Slug, Elapsed: time.Since(startedAt), Err: err}
	}

	return DetailResult{
		Slug:    stub.Slug,
		Theses:  extractTheses(code, inst.Region, stub, doc),
		Elapsed: time.Since(startedAt),
	}
}

// extractTheses walks the completed-supervision branch of a detail document
// and keeps only undergraduate thesis entries.
func extractTheses(code, region string, stub AdvisorStub, doc detailDocument) []Thesis {
	var theses []Thesis
	for _, group := range doc.OutraProducao.OrientacoesConcluidas {
		for _, entry := range group.OutrasOrientacoesConcluidas {
			if entry.DadosBasicos.Natureza != NatureUndergradThesis {
				continue
			}
			theses = append(theses, Thesis{
				AdvisorSlug:     stub.Slug,
				AdvisorName:     cleanValue(stub.Name),
				InstitutionCode: code,
				InstitutionName: cleanValue(entry.Detalhamento.NomeDaInstituicao),
				Region:          region,
				Campus:          cleanValue(stub.Campus),
				Year:            cleanValue(entry.DadosBasicos.Ano.String()),
				Course:          cleanValue(entry.Detalhamento.NomeDoCurso),
				Authors:         buildAuthors(entry.Detalhamento.NomeDoOrientado, stub.Name),
				Title:           cleanValue(entry.DadosBasicos.Titulo),
				Abstract:        cleanValue(entry.InformacoesAdicionais.Descricao),
				Keywords:        cleanValue(entry.PalavrasChave.PalavrasChaves),
			})
		}
	}
	return theses
}

// buildAuthors joins the orientee names with the advisor, suffixing the
// advisor with the marker used later to split the two roles apart.
func buildAuthors(orientees, advisor string) string {
	authors := cleanValue(orientees)
	advisor = cleanValue(advisor)
	if advisor == "" {
		return authors
	}
	if authors != "" {
		authors += ", "
	}
	return authors + advisor + " " + AdvisorMarker
}

// cleanValue maps the portal's placeholder values to the absent-value marker
// (the empty string; stores persist it as NULL).
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "Não disponível" {
		return ""
	}
	return s
}
