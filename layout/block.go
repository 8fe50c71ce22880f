package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/text"
)

// Block represents a contiguous rectangular region of text on a page.
// Blocks are spatially coherent groups of fragments separated by whitespace.
type Block struct {
	// BBox is the union of the bounding boxes of all fragments in the block
	BBox model.BBox

	// Fragments are the text fragments contained in this block (in reading order)
	Fragments []text.Fragment

	// Lines are the fragments grouped into horizontal lines
	Lines [][]text.Fragment

	// Index is the block's position in reading order (0-based)
	Index int
}

// BlockConfig holds configuration for block detection
type BlockConfig struct {
	// LineHeightTolerance is the Y-distance tolerance for grouping fragments into lines
	// as a fraction of fragment height (default: 0.5)
	LineHeightTolerance float64

	// HorizontalGapThreshold is the minimum horizontal gap to consider fragments separate
	// as a fraction of average font size (default: 3.0)
	HorizontalGapThreshold float64

	// VerticalGapThreshold is the minimum vertical gap to start a new block
	// as a fraction of average line height (default: 1.5)
	VerticalGapThreshold float64

	// MergeOverlappingBlocks controls whether overlapping blocks should be merged
	MergeOverlappingBlocks bool
}

// DefaultBlockConfig returns sensible default configuration
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		LineHeightTolerance:    0.5,
		HorizontalGapThreshold: 3.0,
		VerticalGapThreshold:   1.5,
		MergeOverlappingBlocks: true,
	}
}

// BlockDetector detects text blocks on a page. Every fragment passed to
// Detect ends up in exactly one block, however small or isolated it is.
type BlockDetector struct {
	config BlockConfig
}

// NewBlockDetector creates a new block detector with default configuration
func NewBlockDetector() *BlockDetector {
	return &BlockDetector{
		config: DefaultBlockConfig(),
	}
}

// NewBlockDetectorWithConfig creates a block detector with custom configuration
func NewBlockDetectorWithConfig(config BlockConfig) *BlockDetector {
	return &BlockDetector{
		config: config,
	}
}

// Detect groups fragments into blocks, returned in reading order
func (d *BlockDetector) Detect(fragments []text.Fragment) []Block {
	if len(fragments) == 0 {
		return nil
	}

	lines := d.groupIntoLines(fragments)
	blocks := d.groupLinesIntoBlocks(lines)
	if d.config.MergeOverlappingBlocks {
		blocks = d.mergeOverlappingBlocks(blocks)
	}
	return d.sortBlocksInReadingOrder(blocks)
}

// groupIntoLines groups fragments into horizontal lines based on Y position,
// then splits lines at gaps wide enough to separate columns
func (d *BlockDetector) groupIntoLines(fragments []text.Fragment) [][]text.Fragment {
	sorted := make([]text.Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		yDiff := sorted[i].BBox.Bottom() - sorted[j].BBox.Bottom()
		tolerance := (sorted[i].BBox.Height + sorted[j].BBox.Height) / 2 * d.config.LineHeightTolerance
		if math.Abs(yDiff) > tolerance {
			return yDiff > 0 // higher Y first (top of page)
		}
		return sorted[i].BBox.Left() < sorted[j].BBox.Left()
	})

	var lines [][]text.Fragment
	var current []text.Fragment
	for _, frag := range sorted {
		if len(current) > 0 {
			last := current[len(current)-1]
			tolerance := (frag.BBox.Height + last.BBox.Height) / 2 * d.config.LineHeightTolerance
			if math.Abs(frag.BBox.Bottom()-last.BBox.Bottom()) > tolerance {
				lines = append(lines, current)
				current = nil
			}
		}
		current = append(current, frag)
	}
	lines = append(lines, current)

	var split [][]text.Fragment
	for _, line := range lines {
		sort.SliceStable(line, func(a, b int) bool {
			return line[a].BBox.Left() < line[b].BBox.Left()
		})
		split = append(split, d.splitLine(line)...)
	}
	return split
}

func (d *BlockDetector) splitLine(line []text.Fragment) [][]text.Fragment {
	var parts [][]text.Fragment
	start := 0
	right := line[0].BBox.Right()
	for i := 1; i < len(line); i++ {
		size := (line[i].FontSize + line[i-1].FontSize) / 2
		if line[i].BBox.Left()-right > size*d.config.HorizontalGapThreshold {
			parts = append(parts, line[start:i])
			start = i
		}
		right = math.Max(right, line[i].BBox.Right())
	}
	return append(parts, line[start:])
}

// groupLinesIntoBlocks groups lines into blocks based on vertical gaps.
// Lines arrive top to bottom; each joins the most recently extended block
// whose last line it follows closely and overlaps horizontally, so side by
// side columns build separate blocks.
func (d *BlockDetector) groupLinesIntoBlocks(lines [][]text.Fragment) []Block {
	var blocks []Block
	var order []int // block indices, most recently extended last

	for _, line := range lines {
		target := -1
		for k := len(order) - 1; k >= 0; k-- {
			b := &blocks[order[k]]
			if d.continues(b.Lines[len(b.Lines)-1], line) {
				target = order[k]
				order = append(order[:k], order[k+1:]...)
				break
			}
		}
		if target < 0 {
			blocks = append(blocks, Block{})
			target = len(blocks) - 1
		}
		blocks[target].Lines = append(blocks[target].Lines, line)
		order = append(order, target)
	}

	for i := range blocks {
		blocks[i] = finalizeBlock(blocks[i])
	}
	return blocks
}

// continues reports whether curr belongs to the same block as prev, the line
// above it
func (d *BlockDetector) continues(prev, curr []text.Fragment) bool {
	// distance between bottom of prev and top of curr
	gap := lineBBox(prev).Bottom() - lineBBox(curr).Top()
	threshold := (lineHeight(prev) + lineHeight(curr)) / 2 * d.config.VerticalGapThreshold
	return gap <= threshold && calculateHorizontalGap(prev, curr) == 0
}

// finalizeBlock computes the bounding box and collects fragments for a block
func finalizeBlock(block Block) Block {
	block.Fragments = nil
	for _, line := range block.Lines {
		block.Fragments = append(block.Fragments, line...)
	}
	block.BBox = fragmentsBBox(block.Fragments)
	return block
}

// calculateHorizontalGap returns 0 if two lines overlap horizontally,
// otherwise the gap between them
func calculateHorizontalGap(line1, line2 []text.Fragment) float64 {
	b1, b2 := lineBBox(line1), lineBBox(line2)
	if b1.Right() > b2.Left() && b2.Right() > b1.Left() {
		return 0
	}
	if b2.Left() > b1.Right() {
		return b2.Left() - b1.Right()
	}
	return b1.Left() - b2.Right()
}

// mergeOverlappingBlocks merges blocks that significantly overlap
func (d *BlockDetector) mergeOverlappingBlocks(blocks []Block) []Block {
	if len(blocks) <= 1 {
		return blocks
	}

	merged := make([]Block, 0, len(blocks))
	used := make([]bool, len(blocks))

	for i := range blocks {
		if used[i] {
			continue
		}
		current := blocks[i]
		for j := i + 1; j < len(blocks); j++ {
			if !used[j] && blocksOverlap(current, blocks[j]) {
				current = mergeBlocks(current, blocks[j])
				used[j] = true
			}
		}
		merged = append(merged, current)
	}

	return merged
}

// blocksOverlap reports whether the intersection of two blocks exceeds 30%
// of the smaller one
func blocksOverlap(b1, b2 Block) bool {
	inter := b1.BBox.Intersection(b2.BBox)
	if inter.IsEmpty() {
		return false
	}
	return inter.Area() > math.Min(b1.BBox.Area(), b2.BBox.Area())*0.3
}

func mergeBlocks(b1, b2 Block) Block {
	lines := make([][]text.Fragment, 0, len(b1.Lines)+len(b2.Lines))
	lines = append(lines, b1.Lines...)
	lines = append(lines, b2.Lines...)
	sort.SliceStable(lines, func(i, j int) bool {
		return lineBBox(lines[i]).Top() > lineBBox(lines[j]).Top()
	})
	return finalizeBlock(Block{Lines: lines})
}

// sortBlocksInReadingOrder sorts blocks top-to-bottom, left-to-right and
// assigns indices
func (d *BlockDetector) sortBlocksInReadingOrder(blocks []Block) []Block {
	sort.SliceStable(blocks, func(i, j int) bool {
		yDiff := blocks[i].BBox.Top() - blocks[j].BBox.Top()
		if math.Abs(yDiff) > 10 { // tolerance for "same row"
			return yDiff > 0
		}
		return blocks[i].BBox.Left() < blocks[j].BBox.Left()
	})
	for i := range blocks {
		blocks[i].Index = i
	}
	return blocks
}

func fragmentsBBox(frags []text.Fragment) model.BBox {
	if len(frags) == 0 {
		return model.BBox{}
	}
	box := frags[0].BBox
	for _, f := range frags[1:] {
		box = box.Union(f.BBox)
	}
	return box
}

func lineBBox(line []text.Fragment) model.BBox {
	return fragmentsBBox(line)
}

// lineHeight returns the average height of fragments in a line
func lineHeight(line []text.Fragment) float64 {
	total := 0.0
	for _, f := range line {
		total += f.BBox.Height
	}
	return total / float64(len(line))
}

// averageFontSize returns the average font size in a line
func averageFontSize(line []text.Fragment) float64 {
	total := 0.0
	for _, f := range line {
		total += f.FontSize
	}
	return total / float64(len(line))
}

// Text returns the block's text, one line per row
func (b *Block) Text() string {
	lines := make([]string, len(b.Lines))
	for i, line := range b.Lines {
		lines[i] = text.Join(line)
	}
	return strings.Join(lines, "\n")
}

// LineCount returns the number of lines in this block
func (b *Block) LineCount() int {
	return len(b.Lines)
}

// AverageFontSize returns the average font size of fragments in this block
func (b *Block) AverageFontSize() float64 {
	if len(b.Fragments) == 0 {
		return 0
	}
	return averageFontSize(b.Fragments)
}
