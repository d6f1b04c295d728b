// Package bot owns the discord session and fans incoming gateway events
// out to the plugins that registered for them.
package bot

import (
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/electriccapital/cryptobot/common"
	"github.com/electriccapital/cryptobot/common/config"
)

var (
	// Session is the active gateway session, also mirrored in common.BotSession
	Session *discordgo.Session

	// Started is when the bot was started
	Started = time.Now()

	stateLock sync.Mutex
	running   bool

	logger = common.GetFixedPrefixLogger("bot")
)

var confBotToken = config.RegisterOption("cryptobot.bot_token", "Discord bot token", "")

// BotInitHandler is implemented by plugins that need to register gateway
// event handlers before the session is opened
type BotInitHandler interface {
	BotInit()
}

// BotStopperHandler is implemented by plugins that need to flush state on
// shutdown
type BotStopperHandler interface {
	StopBot(wg *sync.WaitGroup)
}

func Run() {
	token := confBotToken.GetString()
	if token == "" {
		logger.Fatal("no bot token set, set the CRYPTOBOT_BOT_TOKEN env var")
	}

	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	session, err := discordgo.New(token)
	if err != nil {
		logger.WithError(err).Fatal("failed initializing discord session")
	}

	// process one event to completion before starting on the next, message
	// handling relies on this run to completion model instead of locking
	session.SyncEvents = true
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentGuildMembers | discordgo.IntentMessageContent

	common.BotSession = session
	Session = session

	session.AddHandler(handleReady)
	session.AddHandler(dispatchMessageCreate)

	for _, p := range common.Plugins {
		if initer, ok := p.(BotInitHandler); ok {
			initer.BotInit()
		}
	}

	err = session.Open()
	if err != nil {
		logger.WithError(err).Fatal("failed opening gateway connection")
	}

	stateLock.Lock()
	running = true
	stateLock.Unlock()
}

func Stop() {
	stateLock.Lock()
	if !running {
		stateLock.Unlock()
		return
	}
	running = false
	stateLock.Unlock()

	var wg sync.WaitGroup
	for _, p := range common.Plugins {
		if stopper, ok := p.(BotStopperHandler); ok {
			wg.Add(1)
			go stopper.StopBot(&wg)
		}
	}
	wg.Wait()

	err := Session.Close()
	common.LogIgnoreError(err, "failed closing gateway connection", nil)
}

func handleReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Infof("Ready received! Connected as %s on %d guilds", r.User.String(), len(r.Guilds))
	metricsConnectedGuilds.Set(float64(len(r.Guilds)))

	err := s.UpdateGameStatus(0, "Type ;help for help!")
	common.LogIgnoreError(err, "failed setting status", nil)
}
