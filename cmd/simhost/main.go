package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"example.com/behavior-sim/internal/behavior"
	"example.com/behavior-sim/internal/behavior/actions"
	"example.com/behavior-sim/internal/config"
	"example.com/behavior-sim/internal/db"
	"example.com/behavior-sim/internal/http"
	"example.com/behavior-sim/internal/library"
	mqttc "example.com/behavior-sim/internal/mqtt"
	"example.com/behavior-sim/internal/remote"
	"example.com/behavior-sim/internal/sim"
)

func main() {
	cfgPath := os.Getenv("SIM_CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "/etc/behavior-sim/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := behavior.NewRegistry()
	actions.Register(reg)
	lib := library.New(reg, os.Stdout)

	var store *db.DB
	if cfg.DBPath != "" {
		store, err = db.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open db: %v", err)
		}
		defer store.Close()
	}
	loadTrees(ctx, cfg, lib, store)

	engine := sim.NewEngine(lib, cfg.TickInterval().Seconds())
	if store != nil && cfg.RecordDecisions {
		engine.Recorder = store
	}
	for _, a := range cfg.Actors {
		if _, err := engine.Spawn(a.ID, a.Tree, a.Blackboard); err != nil {
			log.Printf("spawn %s: %v", a.Tree, err)
		}
	}

	if cfg.MQTTBroker != "" {
		client := connectMQTT(cfg, engine)
		defer func() {
			client.PublishRetained(mqttc.StatusTopic(cfg.HostID), statusPayload(cfg.HostID, "offline"))
			client.Close()
		}()
		engine.Publisher = client
	}

	server := httpserver.NewServer(store, lib, engine)
	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr); err != nil {
			log.Printf("server error: %v", err)
			stop()
		}
	}()

	engine.Start(ctx, cfg.TickInterval())
	log.Println("shutting down simulation host")
}

func loadTrees(ctx context.Context, cfg config.Config, lib *library.Library, store *db.DB) {
	if cfg.TreesDir != "" {
		n, err := lib.LoadDir(cfg.TreesDir)
		if err != nil {
			log.Fatalf("failed to load trees from %s: %v", cfg.TreesDir, err)
		}
		log.Printf("loaded %d trees from %s", n, cfg.TreesDir)
	}
	if cfg.Remote != nil {
		h, err := remote.HostFromConfig(*cfg.Remote)
		if err != nil {
			log.Fatalf("remote: %v", err)
		}
		trees, err := remote.Fetch(h, cfg.Remote.Dir)
		if err != nil {
			log.Printf("remote fetch failed, continuing without remote trees: %v", err)
		} else {
			lib.Add(trees)
		}
	}
	// Stored trees win over files: they are what the API last wrote.
	if store != nil {
		n, err := lib.LoadStore(ctx, store)
		if err != nil {
			log.Fatalf("failed to load stored trees: %v", err)
		}
		log.Printf("loaded %d stored trees", n)
	}
	if err := lib.Check(); err != nil {
		log.Printf("some trees failed to compile:\n%v", err)
	}
}

func connectMQTT(cfg config.Config, engine *sim.Engine) *mqttc.Client {
	onConnect := func(c mqttlib.Client) {
		log.Printf("MQTT connected")
		for _, topic := range mqttc.CommandTopics(cfg.HostID) {
			log.Printf("subscribing to %s", topic)
			if token := c.Subscribe(topic, 0, engine.HandleMessage); token.Wait() && token.Error() != nil {
				log.Printf("subscribe error: %v", token.Error())
			}
		}
		if token := c.Publish(mqttc.StatusTopic(cfg.HostID), 0, true, statusPayload(cfg.HostID, "online")); token.Wait() && token.Error() != nil {
			log.Printf("status publish error: %v", token.Error())
		}
	}
	return mqttc.NewClientWithHandler("simhost-"+cfg.HostID, cfg.MQTTBroker, onConnect)
}

func statusPayload(host, status string) []byte {
	buf, err := json.Marshal(map[string]string{
		"status": status,
		"host":   host,
		"ts":     time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return []byte(`{"status":"` + status + `"}`)
	}
	return buf
}
