package graph

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Summary writes a layer table followed by parameter counts:
//
//	Model: "resnet_v1"
//	Layer (type)                 Output Shape     Param #   Connected to
//	input (InputLayer)           (32, 32, 3)      0
//	conv2d (Conv2D)              (32, 32, 16)     448       input
//	...
//	Total params: 588,586
func (m *Model) Summary(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Model: %q\n", m.name); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintln(tw, "Layer (type)\tOutput Shape\tParam #\tConnected to")
	for _, n := range m.nodes {
		params := 0
		for _, p := range n.layer.Parameters() {
			params += p.Tensor().Len()
		}
		parents := make([]string, len(n.inputs))
		for i, in := range n.inputs {
			parents[i] = in.layer.Name()
		}
		fmt.Fprintf(tw, "%s (%s)\t%v\t%s\t%s\n",
			n.layer.Name(), n.layer.Type(), n.shape, groupDigits(params), strings.Join(parents, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total params: %s\nTrainable params: %s\nNon-trainable params: %s\n",
		groupDigits(m.CountParams()), groupDigits(m.TrainableParams()), groupDigits(m.NonTrainableParams()))
	return err
}

// groupDigits formats n with thousands separators.
func groupDigits(n int) string {
	s := fmt.Sprint(n)
	if n < 0 {
		return "-" + groupDigits(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
