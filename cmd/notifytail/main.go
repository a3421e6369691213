// notifytail signs in as a user and logs their notifications as they arrive.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Luismorlan/localsocial/client"
	"github.com/Luismorlan/localsocial/edgesync"
	"github.com/Luismorlan/localsocial/metrics"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server"
	"github.com/Luismorlan/localsocial/utils/dotenv"
	. "github.com/Luismorlan/localsocial/utils/flag"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/sirupsen/logrus"
)

var (
	apiURL     = flag.String("api", "http://localhost:8080", "base url of the api server")
	token      = flag.String("token", "", "access token, defaults to LOCALSOCIAL_TOKEN")
	userID     = flag.String("user", "", "user id sent as the sub header, only with -bypass_auth")
	statsdAddr = flag.String("statsd", "", "datadog agent address, metrics are off when empty")
	markRead   = flag.Bool("mark_read", false, "mark every notification read once it was logged")
	followBack = flag.Bool("follow_back", false, "follow back every new follower")
)

type logNoticer struct{}

func (logNoticer) Notice(n edgesync.Notice) {
	Log.WithError(n.Err).Warn(n.Title)
}

func main() {
	ServiceName = NotifyTail
	Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()

	if *token == "" {
		*token = os.Getenv("LOCALSOCIAL_TOKEN")
	}
	config := client.Config{BaseURL: *apiURL, Token: *token}
	if ByPassAuth {
		if *userID == "" {
			Log.Fatal("-user is required with -bypass_auth")
		}
		config.Subject = *userID
	} else if *token == "" {
		Log.Fatal("-token or LOCALSOCIAL_TOKEN is required")
	}
	c := client.New(config)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	session := client.NewSession(c)
	if err := session.Start(ctx); err != nil {
		Log.Fatal("cannot sign in: ", err)
	}
	center, err := session.NotificationCenter()
	if err != nil {
		Log.Fatal(err)
	}

	var counter metrics.Counter
	cardOptions := client.CardOptions{Noticer: logNoticer{}}
	if *statsdAddr != "" {
		statsdClient, err := metrics.NewDogStatsdClient(*statsdAddr)
		if err != nil {
			Log.Fatal("cannot reach statsd: ", err)
		}
		defer statsdClient.Close()
		counter = statsdClient
		cardOptions.Reporter = metrics.NewReporter(statsdClient)
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	center.OnChange(func(notifications []server.NotificationResponse, unread int64) {
		mu.Lock()
		var fresh []server.NotificationResponse
		// Oldest first, so the log reads in order.
		for i := len(notifications) - 1; i >= 0; i-- {
			if !seen[notifications[i].Id] {
				seen[notifications[i].Id] = true
				fresh = append(fresh, notifications[i])
			}
		}
		mu.Unlock()

		for _, n := range fresh {
			Log.WithFields(logrus.Fields{
				"id":     n.Id,
				"type":   n.Type,
				"read":   n.Read,
				"unread": unread,
			}).Info(n.Text)
			if counter != nil {
				if err := counter.Incr(metrics.DDOG_NOTIFICATION_RECEIVED, []string{"type:" + n.Type.String()}, 1); err != nil {
					Log.WithError(err).Warn("cannot report notification")
				}
			}
			if *markRead && !n.Read {
				center.MarkRead(ctx, n.Id)
			}
			if *followBack && n.Type == model.NotificationTypeFollow {
				followBackActor(ctx, session, n.ActorID, cardOptions)
			}
		}
	})

	Log.Infof("tailing notifications of %s", session.UserID())
	if err := center.Run(ctx); err != nil {
		Log.Fatal(err)
	}
}

func followBackActor(ctx context.Context, session *client.Session, actorID string, opts client.CardOptions) {
	profile, err := session.Client().Profile(ctx, actorID)
	if err != nil {
		Log.WithError(err).Warnf("cannot load follower %s", actorID)
		return
	}
	if profile.FollowedByMe {
		return
	}
	session.ProfileCard(*profile, opts).Follow.Toggle(ctx)
}
