package scichart

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"
)

// Massive renderer defaults.
const (
	// DefaultChunkSize is the upload chunk granularity in bytes.
	DefaultChunkSize = 64 << 20

	// DefaultMaxSegmentsPerDraw caps one draw submission; larger
	// series are split into batches to stay below driver limits.
	DefaultMaxSegmentsPerDraw = 10_000_000

	// defaultYieldEvery is the number of chunks written between
	// cooperative yields during upload.
	defaultYieldEvery = 4

	// fpsWindow is the rolling window for the FPS statistic.
	fpsWindow = time.Second
)

// MassiveConfig tunes the massive-data renderer. Zero values select
// the defaults above.
type MassiveConfig struct {
	ChunkSize          int
	MaxSegmentsPerDraw int
	YieldEvery         int
}

func (c *MassiveConfig) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxSegmentsPerDraw <= 0 {
		c.MaxSegmentsPerDraw = DefaultMaxSegmentsPerDraw
	}
	if c.YieldEvery <= 0 {
		c.YieldEvery = defaultYieldEvery
	}
}

// UploadProgress receives the fractional completion of an upload,
// reported after every chunk.
type UploadProgress func(fraction float64)

// MassiveStats is the observable state of the last rendered frame.
type MassiveStats struct {
	// FPS over the last one-second window.
	FPS float64

	// LastFrameTime is the wall time of the most recent Render call.
	LastFrameTime time.Duration

	// LODLevel is the level index used by the last frame.
	LODLevel int

	// BufferBytes is the total GPU memory held across all levels.
	BufferBytes int

	// Batches is the number of draw submissions issued last frame.
	Batches int
}

// MassiveRenderer draws one series too large for ordinary upload and
// draw paths: data is written in chunks with cooperative yielding,
// decimated into a LOD ladder, and drawn in bounded batches.
type MassiveRenderer struct {
	mu      sync.Mutex
	backend Backend
	cfg     MassiveConfig

	id     string
	style  DrawStyle
	levels []LODLevel
	minX   float64
	maxX   float64

	stats       MassiveStats
	frameTimes  []time.Time
	bufferBytes int
	uploaded    bool
}

// NewMassiveRenderer wraps an initialized backend. id keys the GPU
// buffers; every LOD level gets its own buffer derived from it.
func NewMassiveRenderer(backend Backend, id string, cfg MassiveConfig) *MassiveRenderer {
	cfg.applyDefaults()
	return &MassiveRenderer{
		backend: backend,
		cfg:     cfg,
		id:      id,
		style: DrawStyle{
			Color:     RGBA{R: 0.12, G: 0.47, B: 0.71, A: 1},
			LineWidth: 1,
		},
	}
}

// SetStyle replaces the draw style used for every batch.
func (m *MassiveRenderer) SetStyle(style DrawStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.style = style
}

// levelBufferID names the GPU buffer for one decimation factor.
func (m *MassiveRenderer) levelBufferID(factor int) string {
	return fmt.Sprintf("%s/lod%d", m.id, factor)
}

// Upload builds the LOD ladder and writes every level in chunks,
// yielding between groups of chunks so a cooperative host loop stays
// responsive. Cancellation is all or nothing: on context error every
// partially written level is deleted and the renderer reverts to the
// not-uploaded state. A cancelled re-upload discards the previous
// upload as well, since level buffers are shared across uploads.
//
// data is interleaved x,y pairs sorted by x; the slice is retained
// (level 0 is zero-copy) and must not be mutated afterwards.
func (m *MassiveRenderer) Upload(ctx context.Context, data []float64, progress UploadProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(data) / 2
	if n == 0 {
		return fmt.Errorf("scichart: massive upload %q: empty data", m.id)
	}

	levels := BuildLODLevels(data)

	totalBytes := 0
	for _, lv := range levels {
		totalBytes += lv.Points() * 8
	}

	written := 0
	chunksDone := 0
	for _, lv := range levels {
		err := m.uploadLevel(ctx, lv, func(chunkBytes int) {
			written += chunkBytes
			chunksDone++
			if progress != nil {
				progress(float64(written) / float64(totalBytes))
			}
			if chunksDone%m.cfg.YieldEvery == 0 {
				runtime.Gosched()
			}
		})
		if err != nil {
			for _, l := range levels {
				m.backend.DeleteBuffer(m.levelBufferID(l.Factor))
			}
			// Level ids are shared across uploads, so a failed re-upload
			// has already clobbered the previous data; revert to the
			// not-uploaded state rather than render stale levels.
			m.levels = nil
			m.bufferBytes = 0
			m.uploaded = false
			return err
		}
	}

	m.levels = levels
	m.bufferBytes = totalBytes
	m.minX, m.maxX = data[0], data[(n-1)*2]
	if m.minX > m.maxX {
		m.minX, m.maxX = m.maxX, m.minX
	}
	m.uploaded = true
	Logger().Info("massive upload complete",
		"series", m.id, "points", n, "levels", len(levels), "bytes", totalBytes)
	return nil
}

// uploadLevel writes one level's packed vertices chunk by chunk.
func (m *MassiveRenderer) uploadLevel(ctx context.Context, lv LODLevel, onChunk func(int)) error {
	id := m.levelBufferID(lv.Factor)
	total := lv.Points() * 8

	cw, ok := m.backend.(ChunkedBufferWriter)
	if !ok {
		// Single-shot fallback for backends without staged writes.
		if err := m.backend.CreateOrUpdateBuffer(id, PackPoints(lv.Data), BufferStatic); err != nil {
			return fmt.Errorf("scichart: upload level %d of %q: %w", lv.Factor, m.id, err)
		}
		onChunk(total)
		return nil
	}

	if err := cw.AllocateBuffer(id, total, BufferStatic); err != nil {
		return fmt.Errorf("scichart: allocate level %d of %q: %w", lv.Factor, m.id, err)
	}

	pointsPerChunk := m.cfg.ChunkSize / 8
	if pointsPerChunk < 1 {
		pointsPerChunk = 1
	}
	for off := 0; off < lv.Points(); off += pointsPerChunk {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scichart: upload of %q cancelled: %w", m.id, err)
		}
		end := off + pointsPerChunk
		if end > lv.Points() {
			end = lv.Points()
		}
		chunk := PackPoints(lv.Data[off*2 : end*2])
		if err := cw.WriteBufferChunk(id, off*8, chunk); err != nil {
			return fmt.Errorf("scichart: write level %d of %q: %w", lv.Factor, m.id, err)
		}
		onChunk(len(chunk))
	}
	return nil
}

// Render selects a LOD level from the visible range, splits the draw
// into bounded batches, and submits the frame. Upload must have
// completed.
func (m *MassiveRenderer) Render(fu FrameUniforms) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.uploaded {
		return fmt.Errorf("scichart: massive render %q: %w", m.id, ErrNotInitialized)
	}

	level := SelectLOD(m.zoomFactor(fu.DataBounds), len(m.levels))
	lv := m.levels[level]

	list := m.batchedList(lv)

	start := time.Now()
	if err := m.backend.Render(list, fu); err != nil {
		return err
	}
	now := time.Now()

	m.frameTimes = append(m.frameTimes, now)
	cutoff := now.Add(-fpsWindow)
	for len(m.frameTimes) > 0 && m.frameTimes[0].Before(cutoff) {
		m.frameTimes = m.frameTimes[1:]
	}

	m.stats = MassiveStats{
		FPS:           float64(len(m.frameTimes)) / fpsWindow.Seconds(),
		LastFrameTime: now.Sub(start),
		LODLevel:      level,
		BufferBytes:   m.bufferBytes,
		Batches:       len(list),
	}
	return nil
}

// Stats returns a copy of the last frame's statistics.
func (m *MassiveRenderer) Stats() MassiveStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// LevelCount returns the number of LOD levels built by Upload.
func (m *MassiveRenderer) LevelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.levels)
}

// Destroy releases every level buffer. The backend itself is left
// alone; it may serve other renderers.
func (m *MassiveRenderer) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lv := range m.levels {
		m.backend.DeleteBuffer(m.levelBufferID(lv.Factor))
	}
	m.levels = nil
	m.bufferBytes = 0
	m.uploaded = false
}

// zoomFactor is total x-range over visible x-range; 1 when either
// range is degenerate or bounds are absent.
func (m *MassiveRenderer) zoomFactor(bounds *Bounds) float64 {
	if bounds == nil {
		return 1
	}
	visible := bounds.MaxX - bounds.MinX
	total := m.maxX - m.minX
	if visible <= 0 || total <= 0 || math.IsNaN(visible) || math.IsNaN(total) {
		return 1
	}
	return total / visible
}

// batchedList splits the level into line-strip batches of at most
// MaxSegmentsPerDraw segments. Consecutive batches share a boundary
// point so the strip stays connected.
func (m *MassiveRenderer) batchedList(lv LODLevel) DrawList {
	n := lv.Points()
	id := m.levelBufferID(lv.Factor)
	maxSeg := m.cfg.MaxSegmentsPerDraw

	if n <= 1 {
		return DrawList{{
			ID: m.id, Kind: KindLine, BufferID: id,
			Count: n, Visible: true, Style: m.style,
		}}
	}

	segments := n - 1
	batches := (segments + maxSeg - 1) / maxSeg
	list := make(DrawList, 0, batches)
	for i := 0; i < batches; i++ {
		first := i * maxSeg
		count := maxSeg + 1
		if first+count > n {
			count = n - first
		}
		list = append(list, DrawCall{
			ID:       fmt.Sprintf("%s#%d", m.id, i),
			Kind:     KindLine,
			BufferID: id,
			First:    first,
			Count:    count,
			Visible:  true,
			Style:    m.style,
		})
	}
	return list
}
