// Command client is the dictation desktop client: push-to-talk microphone
// dictation when run with no arguments, or batch file transcription when
// given one or more media file paths, mirroring the original source's
// main_mic/main_file split (CapsWriter-Offline client/src/main.py).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"dictation/internal/audiofile"
	"dictation/internal/capture"
	"dictation/internal/clientio"
	"dictation/internal/config"
	"dictation/internal/filejob"
	"dictation/internal/hotkey"
	"dictation/internal/hotword"
	"dictation/internal/output"
	"dictation/internal/recognize"
	"dictation/internal/srt"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.LoadClient()
	files := flag.Args()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC: %v", r)
			panic(r)
		}
	}()

	if len(files) > 0 {
		runFileMode(cfg, files)
		return
	}
	runMicMode(cfg)
}

func runFileMode(cfg *config.ClientConfig, files []string) {
	jobCfg := filejob.Config{
		SegDuration: cfg.SegDuration,
		SegOverlap:  cfg.SegOverlap,
		WriteMerge:  cfg.WriteMerge,
		WriteSplit:  true,
		WriteJSON:   cfg.WriteJSON,
		WriteSRT:    cfg.WriteSRT,
		SRT:         srt.NewTokenWriter(),
	}

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			log.Printf("client: file not found, skipping: %s", file)
			continue
		}

		conn, err := clientio.Dial(cfg.ServerURL)
		if err != nil {
			log.Fatalf("client: failed to connect to %s: %v", cfg.ServerURL, err)
		}

		err = filejob.Run(conn, file, jobCfg, func(sent, recognized float64) {
			if sent >= 0 {
				fmt.Printf("\r    sent: %.2fs", sent)
			}
			if recognized >= 0 {
				fmt.Printf("\r    recognized: %.2fs", recognized)
			}
		})
		conn.Close()
		if err != nil {
			log.Printf("client: transcription failed for %s: %v", file, err)
			continue
		}
		fmt.Println()
		log.Printf("client: wrote sidecars for %s", file)
	}
}

func runMicMode(cfg *config.ClientConfig) {
	conn, err := clientio.Dial(cfg.ServerURL)
	if err != nil {
		log.Fatalf("client: failed to connect to %s: %v", cfg.ServerURL, err)
	}
	defer conn.Close()

	capCfg := capture.Config{
		SegDuration: cfg.SegDuration,
		SegOverlap:  cfg.SegOverlap,
		Threshold:   cfg.PreTrigger,
		DeviceName:  cfg.Device,
		SaveAudio:   cfg.SaveAudio,
		OutputDir:   cfg.OutputDir,
	}
	pipeline, err := capture.Open(capCfg, conn)
	if err != nil {
		log.Fatalf("client: failed to open capture device: %v", err)
	}
	defer pipeline.Close()

	layers := loadHotwordLayers(cfg)
	driver := output.NewLogDriver()
	mode := output.ModePaste
	if cfg.OutputMode == string(output.ModeType) {
		mode = output.ModeType
	}

	listener := hotkey.NewStdinListener()
	kwds := hotword.KeywordList{""}
	if cfg.HotKwd {
		kwds, _ = hotword.LoadKeywordList(cfg.HotwordDir + "/kwd.txt")
	}

	log.Printf("client: connected to %s, press Enter to start dictating, Enter again to stop", cfg.ServerURL)
	for {
		listener.WaitBegin()
		stop := listener.WaitStop()

		result, err := pipeline.RecordOnce(stop)
		if err != nil {
			log.Printf("client: recording failed, reopening capture device: %v", err)
			if reopenErr := pipeline.Reopen(); reopenErr != nil {
				log.Fatalf("client: failed to reopen capture device: %v", reopenErr)
			}
			continue
		}

		text := recognize.StripTrailingPunc(result.Final.Text, cfg.TrashPunc)
		text = layers.Apply(text)

		if err := output.Deliver(driver, mode, text); err != nil {
			log.Printf("client: output delivery failed: %v", err)
		}

		if result.AudioPath != "" {
			path, err := audiofile.Rename(result.AudioPath, result.Final.TimeStart, text, cfg.AudioNameLen)
			if err != nil {
				log.Printf("client: failed to finalize recording: %v", err)
			} else if cfg.SessionLog {
				if err := audiofile.WriteMarkdownLog(cfg.OutputDir, kwds, result.Final.TimeStart, path, text); err != nil {
					log.Printf("client: failed to write session log: %v", err)
				}
			}
		}

		log.Printf("client: %q", text)
	}
}

func loadHotwordLayers(cfg *config.ClientConfig) hotword.Layers {
	layers := hotword.Layers{EnableZH: cfg.HotZH, EnableEN: cfg.HotEN, EnableRule: cfg.HotRule, EnableKwd: cfg.HotKwd}

	if zh, err := hotword.LoadPhraseTable(cfg.HotwordDir + "/hot-zh.txt"); err == nil {
		layers.ZH = zh
	}
	if en, err := hotword.LoadPhraseTable(cfg.HotwordDir + "/hot-en.txt"); err == nil {
		layers.EN = en
	}
	if rule, err := hotword.LoadRuleTable(cfg.HotwordDir + "/hot-rule.txt"); err == nil {
		layers.Rule = rule
	}
	return layers
}
