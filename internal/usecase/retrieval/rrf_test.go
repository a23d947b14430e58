package retrieval

import (
	"math"
	"reflect"
	"testing"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/subresult"
)

func TestFuseRRF_WorkedExample(t *testing.T) {
	// lexical ranks C1,C2,C3; dense ranks C2,C4,C1. With k=60:
	//   C1 = 1/61 + 1/63, C2 = 1/62 + 1/61, C3 = 1/63, C4 = 1/62
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("C1"), hit("C2"), hit("C3")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("C2"), hit("C4"), hit("C1")})

	res := fuseRRF([]subresult.SubResult{lexical, dense}, 60, 10)

	want := []string{"C2", "C1", "C4", "C3"}
	if got := hitIDs(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}

	wantC2 := 1.0/62 + 1.0/61
	if got := res.Hits()[0].Score; math.Abs(got-wantC2) > 1e-12 {
		t.Errorf("C2 score = %f, want %f", got, wantC2)
	}
}

func TestFuseRRF_StrategyOrderIndependent(t *testing.T) {
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("a"), hit("b"), hit("c")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("b"), hit("d"), hit("a")})
	sparse := subresult.New(strategy.Sparse, []subresult.Hit{hit("c"), hit("a")})

	forward := fuseRRF([]subresult.SubResult{lexical, dense, sparse}, 60, 10)
	reversed := fuseRRF([]subresult.SubResult{sparse, dense, lexical}, 60, 10)

	if !reflect.DeepEqual(forward.Hits(), reversed.Hits()) {
		t.Fatalf("fusion depends on input order:\n%v\nvs\n%v", forward.Hits(), reversed.Hits())
	}
}

func TestFuseRRF_CarriesChunkMetadata(t *testing.T) {
	// Only the lexical leg hydrated the chunk; the fused hit keeps the
	// metadata regardless of which leg supplied it.
	hydrated := subresult.Hit{
		ChunkID: "ipc_378_0",
		Score:   12.4,
		Chunk: domain.NewChunk("ipc_378_0", "Indian Penal Code, 1860", "378",
			[]string{"criminal"}, "Whoever, intending to take dishonestly..."),
	}
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hydrated})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("ipc_378_0")})

	res := fuseRRF([]subresult.SubResult{dense, lexical}, 60, 10)

	h := res.Hits()[0]
	if h.ActName != "Indian Penal Code, 1860" || h.Section != "378" {
		t.Errorf("metadata lost in fusion: %+v", h)
	}
	if len(h.Domains) != 1 || h.Domains[0] != "criminal" {
		t.Errorf("domains lost in fusion: %v", h.Domains)
	}
	if h.Content == "" {
		t.Error("expected chunk text on the fused hit")
	}
}

func TestFuseRRF_TopKTruncation(t *testing.T) {
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("a"), hit("b"), hit("c")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("d"), hit("e"), hit("f")})

	res := fuseRRF([]subresult.SubResult{lexical, dense}, 60, 3)
	if res.Len() != 3 {
		t.Fatalf("expected 3 fused hits, got %d", res.Len())
	}
}

func TestFuseRRF_RankOneEverywhereWins(t *testing.T) {
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("top"), hit("b")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("top"), hit("c")})
	sparse := subresult.New(strategy.Sparse, []subresult.Hit{hit("top"), hit("d")})

	res := fuseRRF([]subresult.SubResult{lexical, dense, sparse}, 60, 10)
	if res.Hits()[0].ChunkID != "top" {
		t.Fatalf("rank-1-everywhere chunk not first: got %q", res.Hits()[0].ChunkID)
	}
}

func TestFuseRRF_TieBreakByBestRankThenID(t *testing.T) {
	// "x" and "y" each appear once at rank 2 in different strategies:
	// identical scores, identical best ranks, so chunk ID decides.
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("a"), hit("y")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("a"), hit("x")})

	res := fuseRRF([]subresult.SubResult{lexical, dense}, 60, 10)

	want := []string{"a", "x", "y"}
	if got := hitIDs(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFuseRRF_TieBreakPrefersBetterBestRank(t *testing.T) {
	// With k=0, rank 1 in one leg scores 1/1 and rank 2 in two legs scores
	// 1/2 + 1/2: three chunks tie on score, and best rank must order the
	// twice-seen rank-2 chunk last.
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("z"), hit("a")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("y"), hit("a")})

	res := fuseRRF([]subresult.SubResult{lexical, dense}, 0, 10)

	want := []string{"y", "z", "a"}
	if got := hitIDs(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFuseRRF_CollectsContributingStrategies(t *testing.T) {
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("a")})
	sparse := subresult.New(strategy.Sparse, []subresult.Hit{hit("a")})

	res := fuseRRF([]subresult.SubResult{sparse, lexical}, 60, 10)

	want := []strategy.Strategy{strategy.Lexical, strategy.Sparse}
	if got := res.Hits()[0].Strategies; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected strategies %v, got %v", want, got)
	}
	if res.Hits()[0].BestRank != 1 {
		t.Errorf("expected best rank 1, got %d", res.Hits()[0].BestRank)
	}
}

func TestFuseRRF_EmptyInputs(t *testing.T) {
	t.Run("no legs", func(t *testing.T) {
		res := fuseRRF(nil, 60, 10)
		if !res.IsEmpty() {
			t.Fatalf("expected empty result, got %d hits", res.Len())
		}
	})

	t.Run("one empty leg", func(t *testing.T) {
		lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("a")})
		dense := subresult.New(strategy.Dense, nil)
		res := fuseRRF([]subresult.SubResult{lexical, dense}, 60, 10)
		if res.Len() != 1 {
			t.Fatalf("expected 1 hit, got %d", res.Len())
		}
	})
}

func TestFuseRRF_ScoresSortedDescending(t *testing.T) {
	lexical := subresult.New(strategy.Lexical, []subresult.Hit{hit("a"), hit("b"), hit("c"), hit("d")})
	dense := subresult.New(strategy.Dense, []subresult.Hit{hit("c"), hit("a")})

	res := fuseRRF([]subresult.SubResult{lexical, dense}, 60, 10)
	hits := res.Hits()
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted: %f > %f at index %d", hits[i].Score, hits[i-1].Score, i)
		}
	}
}
