package scene

import (
	"fmt"
	"io"
	"os"
)

// progressEvery is how often (in frames) per-frame progress is printed at
// verbosity 2 and above.
const progressEvery = 25

// Options control how a scene is prepared.
type Options struct {
	// Verbosity of the progress text: 0 is silent, 1 prints one line per
	// scene, 2 or more also prints every 25th frame.
	Verbosity int

	// Progress receives the progress text. Nil means standard output.
	Progress io.Writer

	// PerFrameIntrinsics makes pose-table scenes record each frame's own
	// intrinsics. When false every frame gets the intrinsics of the last
	// line in pose.txt, which is what older manifests contain.
	PerFrameIntrinsics bool
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		Verbosity:          2,
		Progress:           os.Stdout,
		PerFrameIntrinsics: true,
	}
}

func (o Options) printf(format string, args ...any) {
	w := o.Progress
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, format, args...)
}

func (o Options) sceneStarted(scene string) {
	if o.Verbosity > 0 {
		o.printf("preparing %s\n", scene)
	}
}

func (o Options) frameStarted(scene string, i, total int) {
	if o.Verbosity > 1 && i%progressEvery == 0 {
		o.printf("preparing %s frame %d/%d\n", scene, i, total)
	}
}
