package config_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/duskreach/netplay/internal/config"
)

func TestParseClientArgs(t *testing.T) {
	Convey("Given valid client argv", t, func() {
		args, err := config.ParseClientArgs([]string{"127.0.0.1", "7777"})
		So(err, ShouldBeNil)
		So(args.ServerAddress, ShouldEqual, "127.0.0.1:7777")
	})

	Convey("Given the wrong number of arguments", t, func() {
		_, err := config.ParseClientArgs([]string{"127.0.0.1"})
		So(err, ShouldNotBeNil)
	})

	Convey("Given a non-numeric port", t, func() {
		_, err := config.ParseClientArgs([]string{"127.0.0.1", "nope"})
		So(err, ShouldNotBeNil)
	})

	Convey("Given a port out of range", t, func() {
		_, err := config.ParseClientArgs([]string{"127.0.0.1", "70000"})
		So(err, ShouldNotBeNil)
	})
}

func TestParseServerArgs(t *testing.T) {
	Convey("Given a valid server argv", t, func() {
		args, err := config.ParseServerArgs([]string{"7777"})
		So(err, ShouldBeNil)
		So(args.ListenAddress, ShouldEqual, ":7777")
	})

	Convey("Given the wrong number of arguments", t, func() {
		_, err := config.ParseServerArgs([]string{})
		So(err, ShouldNotBeNil)
	})
}
