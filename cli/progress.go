package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uiprogress"

	"radgrid/simulation"
)

// progressBar renders one bar for a run, advanced by the integrator observer
type progressBar struct {
	p   *uiprogress.Progress
	bar *uiprogress.Bar
}

func newProgressBar(w io.Writer, total int) *progressBar {
	p := uiprogress.New()
	p.SetOut(w)
	p.SetRefreshInterval(50 * time.Millisecond)
	p.Start()

	bar := p.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("step %d/%d", b.Current(), total)
	})
	return &progressBar{p: p, bar: bar}
}

func (pb *progressBar) observe(f simulation.Frame) {
	pb.bar.Set(f.Step)
}

func (pb *progressBar) stop() {
	pb.p.Stop()
}
