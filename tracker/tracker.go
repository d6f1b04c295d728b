// Package tracker is the activity tracking core: the watchlist of tracked
// channels, the message recording pipeline and the stats queries, plus the
// command router in front of them.
//
// Everything round-trips through the injected Store, there is no in-memory
// mirror of any relation.
package tracker

import (
	"github.com/electriccapital/cryptobot/common"
	"github.com/electriccapital/cryptobot/common/config"
)

var logger = common.GetPluginLogger(&Plugin{})

var confPrefix = config.RegisterOption("cryptobot.prefix", "Command prefix", ";")

type Plugin struct {
	router *Router
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Activity Tracker",
		SysName:  "activity_tracker",
		Category: common.PluginCategoryCore,
	}
}

func RegisterPlugin() {
	common.InitSchemas("activity_tracker", DBSchemas...)

	common.RegisterPlugin(&Plugin{})
}
