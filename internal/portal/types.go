package portal

import (
	"encoding/json"
	"fmt"
	"time"
)

// NatureUndergradThesis is the supervision category retained at extraction
// time; entries with any other nature are dropped before persistence.
const NatureUndergradThesis = "TRABALHO_DE_CONCLUSAO_DE_CURSO_GRADUACAO"

// AdvisorMarker is appended to the advisor's name inside the combined author
// string so the transform can split authors from the advisor later.
const AdvisorMarker = "(Advisor)"

// AdvisorStub is one advisor discovered during listing pagination.
type AdvisorStub struct {
	Slug       string
	Name       string
	Campus     string
	Role       string
	ProfileURL string
}

// Thesis is one qualifying completed-supervision record extracted from an
// advisor's detail document. Empty strings mean the portal reported no value;
// the raw store persists them as NULL.
type Thesis struct {
	AdvisorSlug     string
	AdvisorName     string
	InstitutionCode string
	InstitutionName string
	Region          string
	Campus          string
	Year            string
	Course          string
	Authors         string
	Title           string
	Abstract        string
	Keywords        string
}

// DetailResult is the outcome of one detail fetch. A failed fetch carries Err
// instead of aborting the rest of the pool.
type DetailResult struct {
	Slug    string
	Theses  []Thesis
	Elapsed time.Duration
	Err     error
}

// ProgressFunc receives (current, total) milestones. Total may be
// progress.TotalUnknown while listing is still discovering the real count.
// Detail-fetch callbacks fire from pool goroutines in completion order, so
// implementations must be concurrency-safe.
type ProgressFunc func(current, total int)

// listingMeta is the first element of the portal's two-element listing
// response.
type listingMeta struct {
	Total  int `json:"total"`
	Length int `json:"length"`
}

// listingItem is one advisor stub in the listing batch.
type listingItem struct {
	Slug       string `json:"slug"`
	Name       string `json:"nome"`
	CampusName string `json:"campusNome"`
	Role       string `json:"cargo"`
}

// detailDocument mirrors the nested shape of the detail endpoint. Only the
// completed-supervision branch is decoded.
type detailDocument struct {
	OutraProducao struct {
		OrientacoesConcluidas []struct {
			OutrasOrientacoesConcluidas []supervisionEntry `json:"outrasOrientacoesConcluidas"`
		} `json:"orientacoesConcluidas"`
	} `json:"outraProducao"`
}

type supervisionEntry struct {
	DadosBasicos struct {
		Natureza string     `json:"natureza"`
		Ano      flexString `json:"ano"`
		Titulo   string     `json:"titulo"`
	} `json:"dadosBasicosDeOutrasOrientacoesConcluidas"`
	Detalhamento struct {
		NomeDoOrientado   string `json:"nomeDoOrientado"`
		NomeDaInstituicao string `json:"nomeDaInstituicao"`
		NomeDoCurso       string `json:"nomeDoCurso"`
	} `json:"detalhamentoDeOutrasOrientacoesConcluidas"`
	PalavrasChave struct {
		PalavrasChaves string `json:"palavrasChaves"`
	} `json:"palavrasChave"`
	InformacoesAdicionais struct {
		Descricao string `json:"descricaoInformacoesAdicionais"`
	} `json:"informacoesAdicionais"`
}

// flexString tolerates the portal sending a field as either a JSON string or
// a bare number (the year field does both).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal flexible string: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }
