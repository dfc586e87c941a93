package artifact

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/store"
	"github.com/rushteam/prodrec/vector"
)

func testCatalog() *core.Catalog {
	return core.NewCatalog([]core.Product{
		{Name: "SoapA", PriceUSD: 10, Rating: 4.5, NumberOfReviews: 120, Brand: "Nivea", Category: "Cleanser", CrueltyFree: "True", SkinType: "Dry"},
		{Name: "SoapB", PriceUSD: 11, Rating: 4.4, NumberOfReviews: 130, Brand: "Nivea", Category: "Cleanser", CrueltyFree: "True", SkinType: "Dry"},
		{Name: "Lipstick", PriceUSD: 35, Rating: 3.1, NumberOfReviews: 900, Brand: "Fenty", Category: "Lipstick", CrueltyFree: "False", SkinType: "Oily"},
		{Name: "Serum", PriceUSD: 8.5, Rating: 4.9, NumberOfReviews: 50, Brand: "Ordinary", Category: "Serum", CrueltyFree: "True", SkinType: "Normal"},
		{Name: "Oil", PriceUSD: 15, Rating: 4.0, NumberOfReviews: 10, Brand: "Bulldog", Category: "Oil", CrueltyFree: "False", SkinType: "Normal"},
	})
}

func optionVariants() map[string]Options {
	matrix := DefaultOptions()
	onDemand := DefaultOptions()
	onDemand.Mode = vector.ModeOnDemand
	reduced := DefaultOptions()
	reduced.ReductionEnabled = true
	reduced.Rank = 3
	reducedOnDemand := reduced
	reducedOnDemand.Mode = vector.ModeOnDemand
	return map[string]Options{
		"matrix":           matrix,
		"on_demand":        onDemand,
		"reduced":          reduced,
		"reduced_ondemand": reducedOnDemand,
	}
}

func TestBuild_Deterministic(t *testing.T) {
	ctx := context.Background()
	for name, opts := range optionVariants() {
		t.Run(name, func(t *testing.T) {
			a, err := Build(ctx, testCatalog(), opts)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			b, _ := Build(ctx, testCatalog(), opts)
			ia, _ := a.Index()
			ib, _ := b.Index()
			for row := 0; row < ia.Len(); row++ {
				if !reflect.DeepEqual(ia.TopSimilar(row, 0, true), ib.TopSimilar(row, 0, true)) {
					t.Errorf("row %d ranking differs between builds", row)
				}
			}
			if a.Generation == b.Generation {
				t.Error("each build must get a new generation")
			}
		})
	}
}

func TestBuild_ModesAgree(t *testing.T) {
	ctx := context.Background()
	opts := optionVariants()
	m, _ := Build(ctx, testCatalog(), opts["matrix"])
	d, _ := Build(ctx, testCatalog(), opts["on_demand"])
	im, _ := m.Index()
	id, _ := d.Index()
	for row := 0; row < im.Len(); row++ {
		if !reflect.DeepEqual(im.TopSimilar(row, 0, true), id.TopSimilar(row, 0, true)) {
			t.Errorf("row %d: modes disagree", row)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Build(ctx, core.NewCatalog(nil), DefaultOptions()); !core.IsEmptyCatalog(err) {
		t.Errorf("empty catalog error = %v", err)
	}
	opts := DefaultOptions()
	opts.Mode = "ann"
	if _, err := Build(ctx, testCatalog(), opts); !core.IsNotSupported(err) {
		t.Errorf("unknown mode error = %v", err)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, opts := range optionVariants() {
		for _, compress := range []bool{false, true} {
			a, err := Build(ctx, testCatalog(), opts)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			data, err := Encode(a, compress)
			if err != nil {
				t.Fatalf("%s: Encode() error = %v", name, err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("%s: Decode() error = %v", name, err)
			}
			assertEquivalent(t, a, got)
		}
	}
}

func assertEquivalent(t *testing.T, want, got *Artifact) {
	t.Helper()
	if got.Generation != want.Generation || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("identity differs: %s/%v vs %s/%v", got.Generation, got.CreatedAt, want.Generation, want.CreatedAt)
	}
	if !got.Options.Equivalent(want.Options) {
		t.Errorf("options differ: %+v vs %+v", got.Options, want.Options)
	}
	if !reflect.DeepEqual(got.Encoder, want.Encoder) {
		t.Errorf("encoder state differs")
	}
	if !reflect.DeepEqual(got.Names, want.Names) || got.CatalogFingerprint != want.CatalogFingerprint {
		t.Errorf("names or fingerprint differ")
	}
	if (want.Similarity == nil) != (got.Similarity == nil) || (want.Similarity != nil && !got.Similarity.Equal(want.Similarity)) {
		t.Errorf("similarity matrix differs")
	}
	if (want.Vectors == nil) != (got.Vectors == nil) || (want.Vectors != nil && !got.Vectors.Equal(want.Vectors)) {
		t.Errorf("vectors differ")
	}
	if (want.Reducer == nil) != (got.Reducer == nil) {
		t.Fatalf("reducer presence differs")
	}
	if want.Reducer != nil && !got.Reducer.Components.Equal(want.Reducer.Components) {
		t.Errorf("reducer components differ")
	}
}

func TestDecode_Rejects(t *testing.T) {
	a, _ := Build(context.Background(), testCatalog(), DefaultOptions())
	data, _ := Encode(a, false)

	badVersion := append([]byte(nil), data...)
	badVersion[4] = 99
	badCodec := append([]byte(nil), data...)
	badCodec[6] = 7

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXX"), data[4:]...)},
		{"unknown version", badVersion},
		{"unknown codec", badCodec},
		{"truncated body", data[:len(data)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !core.IsPersistence(err) {
				t.Errorf("Decode() error = %v, want PERSISTENCE", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cat := testCatalog()
	opts := DefaultOptions()
	a, _ := Build(context.Background(), cat, opts)
	if err := Validate(a, cat, opts); err != nil {
		t.Fatalf("Validate(fresh) error = %v", err)
	}

	products := cat.Products()
	products[2].PriceUSD = 99
	changed := core.NewCatalog(products)

	renamed := cat.Products()
	renamed[0].Name = "SoapZ"

	reduced := opts
	reduced.ReductionEnabled = true

	rankOnly := opts
	rankOnly.Rank = 7

	tests := []struct {
		name    string
		catalog *core.Catalog
		opts    Options
		stale   bool
	}{
		{"row count", core.NewCatalog(products[:4]), opts, true},
		{"names", core.NewCatalog(renamed), opts, true},
		{"content", changed, opts, true},
		{"options", cat, reduced, true},
		{"rank ignored without reduction", cat, rankOnly, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(a, tt.catalog, tt.opts)
			if tt.stale != core.IsStale(err) {
				t.Errorf("Validate() error = %v, stale want %v", err, tt.stale)
			}
		})
	}
}

func newTestStore(backend core.Store, opts Options) *Store {
	return NewStore(backend, opts, WithLogger(logging.Nop()), WithCompression(true))
}

func TestStore_LoadOrBuild(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	s := newTestStore(backend, DefaultOptions())
	cat := testCatalog()

	if _, err := s.Load(ctx); !core.IsNotFound(err) {
		t.Fatalf("Load(empty) error = %v", err)
	}

	first, outcome, err := s.LoadOrBuild(ctx, cat)
	if err != nil || outcome != OutcomeAbsent {
		t.Fatalf("LoadOrBuild() = %v, %v", outcome, err)
	}

	second, outcome, err := s.LoadOrBuild(ctx, cat)
	if err != nil || outcome != OutcomeLoaded {
		t.Fatalf("LoadOrBuild(again) = %v, %v", outcome, err)
	}
	assertEquivalent(t, first, second)

	products := cat.Products()
	products = append(products, core.Product{Name: "New", Brand: "Nivea"})
	grown := core.NewCatalog(products)
	third, outcome, err := s.LoadOrBuild(ctx, grown)
	if err != nil || outcome != OutcomeStale {
		t.Fatalf("LoadOrBuild(grown) = %v, %v", outcome, err)
	}
	if len(third.Names) != grown.Len() {
		t.Errorf("rebuilt artifact has %d names", len(third.Names))
	}

	_ = backend.Set(ctx, DefaultKey, []byte("garbage"))
	_, outcome, err = s.LoadOrBuild(ctx, grown)
	if err != nil || outcome != OutcomeCorrupt {
		t.Fatalf("LoadOrBuild(corrupt) = %v, %v", outcome, err)
	}
}

func TestStore_LoadOrBuildFatal(t *testing.T) {
	s := newTestStore(store.NewMemoryStore(), DefaultOptions())
	if _, _, err := s.LoadOrBuild(context.Background(), core.NewCatalog(nil)); !core.IsEmptyCatalog(err) {
		t.Errorf("LoadOrBuild(empty) error = %v", err)
	}
}

type failingStore struct{ core.Store }

func (failingStore) Name() string { return "failing" }
func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestStore_SaveFailureStillServes(t *testing.T) {
	s := newTestStore(failingStore{store.NewMemoryStore()}, DefaultOptions())
	a, outcome, err := s.LoadOrBuild(context.Background(), testCatalog())
	if err != nil {
		t.Fatalf("LoadOrBuild() error = %v", err)
	}
	if a == nil || outcome != OutcomeAbsent {
		t.Fatalf("LoadOrBuild() = %v, %v", a, outcome)
	}

	a, err = s.BuildAndSave(context.Background(), testCatalog())
	if a == nil || !core.IsPersistence(err) {
		t.Errorf("BuildAndSave() = %v, %v; want artifact and PERSISTENCE", a, err)
	}
}

func TestLoadOrBuild_IncompletePayloadRebuilds(t *testing.T) {
	ctx := context.Background()
	variants := optionVariants()
	tests := []struct {
		name   string
		opts   Options
		mutate func(a *Artifact)
	}{
		{"matrix without similarity", variants["matrix"], func(a *Artifact) { a.Similarity = nil }},
		{"similarity wrong shape", variants["matrix"], func(a *Artifact) { a.Similarity = vector.NewMatrix(2, 2) }},
		{"matrix payload stored as vectors", variants["matrix"], func(a *Artifact) { a.Vectors, a.Similarity = a.Similarity, nil }},
		{"on_demand without vectors", variants["on_demand"], func(a *Artifact) { a.Vectors = nil }},
		{"vectors wrong dim", variants["reduced_ondemand"], func(a *Artifact) {
			a.Vectors = vector.NewMatrix(a.Vectors.Rows, a.Vectors.Cols+1)
		}},
		{"reducer components wrong shape", variants["reduced"], func(a *Artifact) { a.Reducer.Components = vector.NewMatrix(1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Build(ctx, testCatalog(), tt.opts)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			tt.mutate(a)
			if err := Validate(a, testCatalog(), tt.opts); !core.IsPersistence(err) {
				t.Errorf("Validate() error = %v, want PERSISTENCE", err)
			}
			data, err := Encode(a, false)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if _, err := Decode(data); !core.IsPersistence(err) {
				t.Errorf("Decode() error = %v, want PERSISTENCE", err)
			}

			backend := store.NewMemoryStore()
			_ = backend.Set(ctx, DefaultKey, data)
			s := newTestStore(backend, tt.opts)
			got, outcome, err := s.LoadOrBuild(ctx, testCatalog())
			if err != nil || outcome != OutcomeCorrupt {
				t.Fatalf("LoadOrBuild() = %v, %v; want %v", outcome, err, OutcomeCorrupt)
			}
			idx, err := got.Index()
			if err != nil || idx.Len() != testCatalog().Len() {
				t.Fatalf("rebuilt artifact index = %v, %v", idx, err)
			}
			if _, err := s.Load(ctx); err != nil {
				t.Errorf("rebuilt artifact not persisted: %v", err)
			}
		})
	}
}
