package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rushteam/prodrec/catalog"
	"github.com/rushteam/prodrec/core"
)

type healthView struct {
	Status     string `json:"status"`
	Products   int    `json:"products"`
	Dimensions int    `json:"dimensions"`
	Mode       string `json:"mode"`
}

type recommendationView struct {
	Product map[string]any `json:"product"`
	Score   float64        `json:"score"`
}

type recommendView struct {
	Query           string               `json:"query"`
	N               int                  `json:"n"`
	Recommendations []recommendationView `json:"recommendations"`
}

type rebuildView struct {
	Generation string `json:"generation"`
	Products   int    `json:"products"`
	Persisted  bool   `json:"persisted"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.Engine().Current()
	respondOK(w, st.Generation(), healthView{
		Status:     "ok",
		Products:   st.Catalog.Len(),
		Dimensions: st.Artifact.Dim(),
		Mode:       string(st.Index.Mode()),
	})
}

// handleProducts 支持按条件（brand / skin_type / gender_target / cruelty_free / min_price / max_price）
// 与 CEL 表达式（filter）筛选，两者同时给出时取交集。
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Engine().Current()
	q := r.URL.Query()

	criteria, err := parseCriteria(q.Get)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	products := catalog.Filter(st.Catalog, criteria)
	if expr := q.Get("filter"); expr != "" {
		matched, err := catalog.Expr(core.NewCatalog(products), expr)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		products = matched
	}

	out := make([]map[string]any, 0, len(products))
	for i := range products {
		out = append(out, products[i].Attributes())
	}
	respondOK(w, st.Generation(), out)
}

func (s *Server) handleFacets(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.Engine().Current()
	respondOK(w, st.Generation(), catalog.BuildFacets(st.Catalog))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "n must be an integer")
			return
		}
		n = v
	}
	if n < 1 {
		n = s.svc.DefaultN()
	}

	res, err := s.svc.RecommendScene(r.Context(), "http", name, n)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	recs := make([]recommendationView, 0, len(res.Products))
	for i := range res.Products {
		recs = append(recs, recommendationView{Product: res.Products[i].Attributes(), Score: res.Items[i].Score})
	}
	respondOK(w, res.Generation, recommendView{Query: name, N: n, Recommendations: recs})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	cat := s.svc.Engine().Current().Catalog
	if s.loadCatalog != nil {
		loaded, err := s.loadCatalog(r.Context())
		if err != nil {
			respondDomainError(w, err)
			return
		}
		cat = loaded
	}

	st, err := s.svc.Engine().Rebuild(r.Context(), cat)
	if st == nil {
		respondDomainError(w, err)
		return
	}
	respondOK(w, st.Generation(), rebuildView{
		Generation: st.Generation(),
		Products:   st.Catalog.Len(),
		Persisted:  err == nil,
	})
}

func parseCriteria(get func(string) string) (catalog.Criteria, error) {
	criteria := catalog.Criteria{
		Brand:        get("brand"),
		SkinType:     get("skin_type"),
		GenderTarget: get("gender_target"),
	}
	if raw := get("cruelty_free"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return criteria, invalidParam("cruelty_free", err)
		}
		criteria.CrueltyFree = &v
	}
	for _, p := range []struct {
		key string
		dst **float64
	}{
		{"min_price", &criteria.MinPrice},
		{"max_price", &criteria.MaxPrice},
	} {
		raw := get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return criteria, invalidParam(p.key, err)
		}
		*p.dst = &v
	}
	return criteria, nil
}

func invalidParam(name string, err error) error {
	return core.WrapDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "invalid query parameter "+name, err)
}
