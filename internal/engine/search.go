package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// maxPly bounds the recursion depth of the main and quiescence search.
const maxPly = 256

// SearchResult is delivered once a search completes.
type SearchResult struct {
	Move  board.Move // NoMove if no depth completed
	Score int
	Depth int
}

// Diagnostics is a read-only snapshot of search statistics.
type Diagnostics struct {
	Nodes              uint64
	QuiescenceNodes    uint64
	Cutoffs            uint64
	TTHits             uint64
	PositionsEvaluated uint64
	LastCompletedDepth int
	BestMove           board.Move
	BestScore          int
	Elapsed            time.Duration
}

// Searcher runs iterative-deepening alpha-beta search on one Position.
// The Position is mutated in place while searching and restored afterwards;
// a Searcher must not run two searches at once.
type Searcher struct {
	// OnSearchComplete receives the result at the end of StartSearch.
	OnSearchComplete func(SearchResult)

	settings  Settings
	pos       *board.Position
	gen       *board.MoveGenerator
	orderer   *MoveOrderer
	evaluator *Evaluator
	tt        *TranspositionTable

	abort atomic.Bool
	// timeUp is replaced every search so a late timer cannot stop the next one.
	timeUp *atomic.Bool

	moveLists [maxPly]board.MoveList

	bestMoveThisIteration board.Move
	bestEvalThisIteration int
	bestMove              board.Move
	bestEval              int

	stats Diagnostics

	mu        sync.Mutex
	published Diagnostics
}

// NewSearcher creates a searcher for pos.
func NewSearcher(pos *board.Position, settings Settings) *Searcher {
	settings.MaxDepth = min(settings.MaxDepth, maxPly-1)

	gen := board.NewMoveGenerator()
	gen.PromotionMode = settings.PromotionMode

	tt := NewTranspositionTable(settings.TTSizeMB)
	tt.Enabled = settings.UseTranspositionTable

	return &Searcher{
		settings:  settings,
		pos:       pos,
		gen:       gen,
		orderer:   NewMoveOrderer(),
		evaluator: NewEvaluator(),
		tt:        tt,
		timeUp:    new(atomic.Bool),
	}
}

// Settings returns the searcher's configuration.
func (s *Searcher) Settings() Settings {
	return s.settings
}

// StartSearch searches the position until the depth limit, a forced mate,
// the move time or EndSearch, then reports through OnSearchComplete.
// Only fully completed depths count towards the result.
func (s *Searcher) StartSearch() SearchResult {
	start := time.Now()

	s.bestMove, s.bestEval = board.NoMove, 0
	s.bestMoveThisIteration, s.bestEvalThisIteration = board.NoMove, 0
	s.stats = Diagnostics{}
	s.publish(time.Since(start))
	s.tt.Clear()

	// A stop requested before the search started still applies; the request
	// is consumed when the search returns.
	defer s.abort.Store(false)

	timeUp := new(atomic.Bool)
	s.timeUp = timeUp
	if s.settings.MoveTime > 0 {
		timer := time.AfterFunc(s.settings.MoveTime, func() { timeUp.Store(true) })
		defer timer.Stop()
	}

	for depth := 1; depth <= s.settings.MaxDepth; depth++ {
		s.searchMoves(depth, 0, negativeInfinity, positiveInfinity)

		if s.aborted() {
			log.Debug().Int("depth", depth).Msg("search aborted, discarding partial depth")
			break
		}

		s.bestMove = s.bestMoveThisIteration
		s.bestEval = s.bestEvalThisIteration
		s.stats.LastCompletedDepth = depth
		s.stats.BestMove = s.bestMove
		s.stats.BestScore = s.bestEval
		s.stats.TTHits = s.tt.Hits()
		s.publish(time.Since(start))

		log.Debug().
			Int("depth", depth).
			Int("score", s.bestEval).
			Str("move", s.bestMove.String()).
			Uint64("nodes", s.stats.Nodes).
			Uint64("qnodes", s.stats.QuiescenceNodes).
			Uint64("cutoffs", s.stats.Cutoffs).
			Msg("depth complete")

		if IsMateScore(s.bestEval) {
			break
		}
	}

	result := SearchResult{
		Move:  s.bestMove,
		Score: s.bestEval,
		Depth: s.stats.LastCompletedDepth,
	}
	s.stats.TTHits = s.tt.Hits()
	s.publish(time.Since(start))

	if s.OnSearchComplete != nil {
		s.OnSearchComplete(result)
	}
	return result
}

// EndSearch asks a running search, or the next one to start, to stop at the
// next node boundary. It is safe to call from any goroutine.
func (s *Searcher) EndSearch() {
	s.abort.Store(true)
}

func (s *Searcher) aborted() bool {
	return s.abort.Load() || s.timeUp.Load()
}

// SearchContext runs StartSearch and ends it early when ctx is cancelled.
// The result of a cancelled search is returned together with ctx.Err().
func (s *Searcher) SearchContext(ctx context.Context) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return SearchResult{}, err
	}

	stopped := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		s.EndSearch()
		close(stopped)
	})
	result := s.StartSearch()
	if stop() {
		return result, nil
	}

	// The stop request may have landed after the search returned.
	<-stopped
	s.abort.Store(false)
	return result, ctx.Err()
}

// Diagnostics returns the statistics as of the last completed depth.
// It is safe to call from any goroutine.
func (s *Searcher) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}

func (s *Searcher) publish(elapsed time.Duration) {
	s.mu.Lock()
	s.published = s.stats
	s.published.Elapsed = elapsed
	s.mu.Unlock()
}

func (s *Searcher) searchMoves(depth, plyFromRoot, alpha, beta int) int {
	if s.aborted() {
		return 0
	}
	s.stats.Nodes++
	pos := s.pos

	if plyFromRoot > 0 {
		// One repetition in the line is scored as a draw.
		if pos.RepeatedInLine() {
			return 0
		}

		// A mate found closer to the root cannot be improved on here.
		alpha = max(alpha, -ImmediateMateScore+plyFromRoot)
		beta = min(beta, ImmediateMateScore-plyFromRoot)
		if alpha >= beta {
			return alpha
		}
	}

	if value := s.tt.Lookup(pos.Hash, depth, plyFromRoot, alpha, beta); value != LookupFailed {
		if plyFromRoot == 0 {
			s.bestMoveThisIteration = s.tt.StoredMove(pos.Hash)
			s.bestEvalThisIteration = value
		}
		return value
	}

	if depth == 0 {
		return s.quiescenceSearch(plyFromRoot, alpha, beta)
	}

	moves := &s.moveLists[plyFromRoot]
	s.gen.GenerateMoves(pos, moves, false)
	inCheck := s.gen.InCheck()
	s.orderer.OrderMoves(pos, s.gen, moves, s.tt.StoredMove(pos.Hash))

	if moves.Len() == 0 {
		if inCheck {
			return -(ImmediateMateScore - plyFromRoot)
		}
		return 0
	}

	bound := UpperBound
	bestMoveHere := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		pos.Apply(m, true)
		eval := -s.searchMoves(depth-1, plyFromRoot+1, -beta, -alpha)
		pos.Undo(m, true)

		if s.aborted() {
			return 0
		}

		if eval >= beta {
			s.tt.Store(pos.Hash, depth, plyFromRoot, beta, LowerBound, m)
			s.stats.Cutoffs++
			return beta
		}

		if eval > alpha {
			bound = Exact
			bestMoveHere = m
			alpha = eval
			if plyFromRoot == 0 {
				s.bestMoveThisIteration = m
				s.bestEvalThisIteration = eval
			}
		}
	}

	s.tt.Store(pos.Hash, depth, plyFromRoot, alpha, bound, bestMoveHere)
	return alpha
}

// quiescenceSearch extends the leaves with captures until the position is quiet.
func (s *Searcher) quiescenceSearch(plyFromRoot, alpha, beta int) int {
	if s.aborted() {
		return 0
	}
	s.stats.QuiescenceNodes++
	pos := s.pos

	// Captures are optional: the side to move may stand pat.
	eval := s.evaluator.Evaluate(pos)
	s.stats.PositionsEvaluated++
	if eval >= beta {
		return beta
	}
	if eval > alpha {
		alpha = eval
	}

	if plyFromRoot >= maxPly {
		return alpha
	}

	moves := &s.moveLists[plyFromRoot]
	s.gen.GenerateMoves(pos, moves, true)
	s.orderer.OrderMoves(pos, s.gen, moves, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		pos.Apply(m, true)
		eval = -s.quiescenceSearch(plyFromRoot+1, -beta, -alpha)
		pos.Undo(m, true)

		if eval >= beta {
			s.stats.Cutoffs++
			return beta
		}
		if eval > alpha {
			alpha = eval
		}
	}

	return alpha
}
