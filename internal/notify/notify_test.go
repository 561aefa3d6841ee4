package notify_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/notify"
)

func Test_LogNotifier_Logs_Errors_At_Error_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	notify.NewLogNotifier(logger).Notify(domain.SeverityError, "Could not fetch listings")

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"message":"Could not fetch listings"`)
	assert.Contains(t, buf.String(), `"severity":"error"`)
}

func Test_Fanout_Delivers_To_Every_Sink(t *testing.T) {
	t.Parallel()

	a, b := &notify.Recorder{}, &notify.Recorder{}
	notify.Fanout{a, b}.Notify(domain.SeveritySuccess, "Listing saved")

	want := []notify.Entry{{Severity: domain.SeveritySuccess, Message: "Listing saved"}}
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, want, b.Entries())
}
