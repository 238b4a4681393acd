package etl

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
	"github.com/integralabs/integra-harvester/internal/mart"
	"github.com/integralabs/integra-harvester/internal/metrics"
	"github.com/integralabs/integra-harvester/internal/portal"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

// Rejection stages, in pipeline order.
const (
	StageCourseLevel = "course_level"
	StageProvenance  = "provenance"
	StageResolution  = "resolution"
)

// Report summarizes one transform run.
type Report struct {
	InputRows    int            `json:"input_rows"`
	FactsLoaded  int            `json:"facts_loaded"`
	Rejections   map[string]int `json:"rejections"`
	Institutions int            `json:"institutions"`
	Campuses     int            `json:"campuses"`
	Courses      int            `json:"courses"`
	People       int            `json:"people"`
}

// Transformer rebuilds the dimensional warehouse from the raw store.
type Transformer struct {
	cfg    config.Config
	logger *zap.Logger
}

func NewTransformer(cfg config.Config, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{cfg: cfg, logger: logger}
}

// rowPayload is what a rejection records about the row it excluded.
type rowPayload struct {
	AdvisorSlug string `json:"advisor_slug"`
	Code        string `json:"code"`
	Institution string `json:"institution,omitempty"`
	Campus      string `json:"campus,omitempty"`
	Course      string `json:"course,omitempty"`
	Title       string `json:"title"`
}

func payloadFor(th portal.Thesis) rowPayload {
	return rowPayload{
		AdvisorSlug: th.AdvisorSlug,
		Code:        th.InstitutionCode,
		Institution: th.InstitutionName,
		Campus:      th.Campus,
		Course:      th.Course,
		Title:       th.Title,
	}
}

// Run executes the full transform: filter, validate, build dimensions,
// resolve keys, assemble facts and bridges, and replace the warehouse. Every
// excluded row lands in the rejection log with its stage and reason.
func (t *Transformer) Run(ctx context.Context, raw *rawstore.Store, store *mart.Store) (Report, error) {
	report := Report{Rejections: map[string]int{}}

	theses, err := raw.AllTheses(ctx)
	if err != nil {
		return report, fmt.Errorf("load raw theses: %w", err)
	}
	report.InputRows = len(theses)

	if err := store.ResetRejections(ctx); err != nil {
		return report, err
	}
	var rejections []mart.Rejection
	reject := func(stage, reason string, th portal.Thesis) {
		rejections = append(rejections, mart.Rejection{
			Stage:   stage,
			Reason:  reason,
			Payload: payloadFor(th),
		})
		report.Rejections[stage]++
	}

	validator := newValidator(t.cfg.Institutions)
	var kept []portal.Thesis
	for _, th := range theses {
		if !isHigherEducation(th.Course) {
			reject(StageCourseLevel, "course is not a higher-education program", th)
			continue
		}
		if !validator.accept(th.InstitutionName, th.InstitutionCode) {
			reject(StageProvenance, "claimed institution does not match crawl target", th)
			continue
		}
		kept = append(kept, th)
	}

	wh := t.buildDimensions(kept)
	campusID := indexCampuses(wh.Campuses)
	courseID := indexCourses(wh.Courses)
	personID := indexPeople(wh.People)
	instID := make(map[string]int, len(wh.Institutions))
	for _, inst := range wh.Institutions {
		instID[inst.Code] = inst.ID
	}

	for _, th := range kept {
		iid, ok := instID[th.InstitutionCode]
		if !ok {
			reject(StageResolution, "institution code absent from registry", th)
			continue
		}
		caid, ok := campusID[titleCase(th.Campus)]
		if !ok {
			reject(StageResolution, "unresolved dimension key (campus)", th)
			continue
		}
		coid, ok := courseID[titleCase(th.Course)]
		if !ok {
			reject(StageResolution, "unresolved dimension key (course)", th)
			continue
		}

		factID := len(wh.Facts) + 1
		wh.Facts = append(wh.Facts, mart.Fact{
			ID:            factID,
			Title:         th.Title,
			Abstract:      th.Abstract,
			Keywords:      th.Keywords,
			Year:          th.Year,
			CourseID:      coid,
			InstitutionID: iid,
			CampusID:      caid,
		})

		students, advisor := splitAuthors(th.Authors)
		for _, student := range students {
			pid, ok := personID[titleCase(student)]
			if !ok {
				continue
			}
			wh.AuthorBridge = append(wh.AuthorBridge, mart.BridgePair{FactID: factID, PersonID: pid})
		}
		if advisor != "" {
			if pid, ok := personID[titleCase(advisor)]; ok {
				wh.AdvisorBridge = append(wh.AdvisorBridge, mart.BridgePair{FactID: factID, PersonID: pid})
			}
		}
	}

	if err := store.Load(ctx, wh); err != nil {
		return report, err
	}
	if err := store.AppendRejections(ctx, rejections); err != nil {
		return report, err
	}

	report.FactsLoaded = len(wh.Facts)
	report.Institutions = len(wh.Institutions)
	report.Campuses = len(wh.Campuses)
	report.Courses = len(wh.Courses)
	report.People = len(wh.People)

	for stage, n := range report.Rejections {
		metrics.ObserveRejections(stage, n)
	}
	metrics.ObserveFactsLoaded(report.FactsLoaded)

	t.logger.Info("transform complete",
		zap.Int("input_rows", report.InputRows),
		zap.Int("facts_loaded", report.FactsLoaded),
		zap.Int("rejected", len(rejections)))
	return report, nil
}

// buildDimensions derives every dimension from the surviving rows. Ids are
// dense and assigned in sorted order, so repeated runs over the same raw data
// produce byte-identical dimensions. The institution dimension always covers
// the whole registry, crawled or not.
func (t *Transformer) buildDimensions(kept []portal.Thesis) mart.Warehouse {
	var wh mart.Warehouse

	for i, code := range t.cfg.Codes() {
		inst := t.cfg.Institutions[code]
		wh.Institutions = append(wh.Institutions, mart.InstitutionDim{
			ID:     i + 1,
			Code:   code,
			Name:   inst.Name,
			Region: inst.Region,
			URL:    inst.BaseURL,
		})
	}

	campusSet := map[string]struct{}{}
	courseSet := map[string]struct{}{}
	personSet := map[string]struct{}{}
	for _, th := range kept {
		if campus := titleCase(th.Campus); campus != "" {
			campusSet[campus] = struct{}{}
		}
		if course := titleCase(th.Course); course != "" {
			courseSet[course] = struct{}{}
		}
		students, advisor := splitAuthors(th.Authors)
		for _, student := range students {
			if name := titleCase(student); name != "" {
				personSet[name] = struct{}{}
			}
		}
		if name := titleCase(advisor); name != "" {
			personSet[name] = struct{}{}
		}
	}

	for i, name := range sortedKeys(campusSet) {
		wh.Campuses = append(wh.Campuses, mart.CampusDim{ID: i + 1, Name: name})
	}
	for i, name := range sortedKeys(courseSet) {
		wh.Courses = append(wh.Courses, mart.CourseDim{ID: i + 1, Name: name, Level: courseLevelTag})
	}
	for i, name := range sortedKeys(personSet) {
		wh.People = append(wh.People, mart.PersonDim{ID: i + 1, Name: name})
	}
	return wh
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexCampuses(dims []mart.CampusDim) map[string]int {
	idx := make(map[string]int, len(dims))
	for _, d := range dims {
		idx[d.Name] = d.ID
	}
	return idx
}

func indexCourses(dims []mart.CourseDim) map[string]int {
	idx := make(map[string]int, len(dims))
	for _, d := range dims {
		idx[d.Name] = d.ID
	}
	return idx
}

func indexPeople(dims []mart.PersonDim) map[string]int {
	idx := make(map[string]int, len(dims))
	for _, d := range dims {
		idx[d.Name] = d.ID
	}
	return idx
}
