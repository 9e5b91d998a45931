package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatJSON), ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("court").Info(ctx, "vote accepted",
				String("court", "C1"),
				Int("seq", 3),
				Bool("decided", true),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries the fields, component and source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "vote accepted")
				So(rec["court"], ShouldEqual, "C1")
				So(rec["seq"], ShouldEqual, float64(3))
				So(rec["decided"], ShouldEqual, true)
				So(rec["component"], ShouldEqual, "court")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised above the message level", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden too")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Reset(func() {
			_ = SetLevelString("info")
		})
	})
}

func TestLoggerTextFormat(t *testing.T) {
	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatText), ShouldBeNil)

		Get().Warn(context.Background(), "slow subscriber", String("court", "C9"))

		So(buf.String(), ShouldContainSubstring, "level=WARN")
		So(buf.String(), ShouldContainSubstring, "court=C9")
	})
}

func TestInitWithWriterErrors(t *testing.T) {
	Convey("Given invalid logger settings", t, func() {
		So(InitWithWriter(nil, FormatText), ShouldNotBeNil)
		err := InitWithWriter(&bytes.Buffer{}, "xml")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "xml"), ShouldBeTrue)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		_ = SetLevelString("info")
	})
}
