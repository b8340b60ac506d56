package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remodance/internal/api"
	"remodance/internal/core/model"
	"remodance/internal/core/monitor"
	"remodance/internal/platform"
	"remodance/internal/storage"
	"remodance/internal/ui/tray"
)

const appName = "Remodance"

func main() {
	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	store := storage.Store{AppName: appName}
	settings, err := store.Load(model.DefaultSettings(platform.CurrentIdentity()))
	if err != nil {
		log.Printf("load settings: %v", err)
	}

	attendance := monitor.New(settings, api.NewClient(0), monitor.Config{TickInterval: time.Second})
	attendance.SetIdleChecker(platform.NewIdleProvider())
	attendance.SetStore(store)

	service := platform.NewService()
	autostartEnabled := configureAutostart(service)

	attendance.Start()
	events := attendance.Subscribe(5)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		attendance.Stop()
		tray.Quit()
	}()

	tray.Run(tray.Callbacks{
		OnCheckIn: func() {
			if err := attendance.SendAttendanceEvent(monitor.AttendanceCheckIn); err != nil {
				log.Printf("manual check-in: %v", err)
			}
		},
		OnCheckOut: func() {
			if err := attendance.SendAttendanceEvent(monitor.AttendanceCheckOut); err != nil {
				log.Printf("manual check-out: %v", err)
			}
		},
		OnToggleAutostart: func(enable bool) {
			if err := toggleAutostart(service, enable); err != nil {
				log.Printf("toggle autostart: %v", err)
			}
		},
		OnQuit: func() {
			attendance.Stop()
		},
	}, autostartEnabled, func(manager *tray.Manager) {
		manager.SetStatus(string(attendance.Status()))
		go func() {
			for event := range events {
				if event.Type == monitor.EventAttendanceChanged {
					manager.SetStatus(string(attendance.Status()))
				}
			}
		}()
	})
}

// configureAutostart enables launch-at-login on first run and reports
// the resulting state for the tray checkbox.
func configureAutostart(service platform.Service) bool {
	enabled, err := service.AutostartEnabled(appName)
	if err != nil {
		log.Printf("query autostart: %v", err)
		return false
	}
	if enabled {
		return true
	}

	execPath, err := os.Executable()
	if err != nil {
		log.Printf("resolve executable: %v", err)
		return false
	}
	if err := service.EnableAutostart(appName, execPath); err != nil {
		log.Printf("enable autostart: %v", err)
		return false
	}
	return true
}

func toggleAutostart(service platform.Service, enable bool) error {
	if !enable {
		return service.DisableAutostart(appName)
	}
	execPath, err := os.Executable()
	if err != nil {
		return err
	}
	return service.EnableAutostart(appName, execPath)
}
