package output_test

import (
	"bytes"
	"testing"

	"github.com/VaitoSoi/docker-go/output"
	"github.com/stretchr/testify/require"
)

func TestCustomWriter(t *testing.T) {
	t.Run("normal output goes to the out stream", func(t *testing.T) {
		var out, errOut bytes.Buffer
		w := output.NewCustomWriter(&out, &errOut)

		w.Print("a")
		w.Printf(" %s", "b")
		w.Println(" c")

		require.Equal(t, "a b c\n", out.String())
		require.Empty(t, errOut.String())
	})

	t.Run("warnings go to the error stream with a prefix", func(t *testing.T) {
		var out, errOut bytes.Buffer
		w := output.NewCustomWriter(&out, &errOut)

		w.Warning("something odd")
		w.Warningf("odd %d times", 3)

		require.Equal(t, "Warning: something odd\nWarning: odd 3 times\n", errOut.String())
		require.Empty(t, out.String())
	})

	t.Run("GetWriter exposes the out stream", func(t *testing.T) {
		var out, errOut bytes.Buffer
		w := output.NewCustomWriter(&out, &errOut)

		_, err := w.GetWriter().Write([]byte("direct"))
		require.NoError(t, err)
		require.Equal(t, "direct", out.String())
	})
}
