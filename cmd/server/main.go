package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"dictation/internal/config"
	"dictation/internal/conn"
	"dictation/internal/queue"
	"dictation/internal/recognize"
)

func main() {
	cfg := config.Load()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC: %v", r)
			panic(r)
		}
	}()

	engineCfg := recognize.EngineConfig{Kind: recognize.EngineKind(cfg.EngineKind)}
	switch engineCfg.Kind {
	case recognize.EngineKindOffline:
		engineCfg.Offline = recognize.OfflineEngineConfig{
			EncoderPath:     cfg.OfflineEncoder,
			DecoderPath:     cfg.OfflineDecoder,
			JoinerPath:      cfg.OfflineJoiner,
			ParaformerModel: cfg.OfflineParaformer,
			TokensPath:      cfg.OfflineTokens,
			NumThreads:      cfg.OfflineThreads,
			Provider:        cfg.OfflineProvider,
			DecodingMethod:  cfg.DecodingMethod,
			MaxActivePaths:  cfg.MaxActivePaths,
		}
	case recognize.EngineKindCloud:
		engineCfg.Cloud = recognize.CloudEngineConfig{
			URL:       cfg.CloudURL,
			AuthToken: cfg.CloudToken,
			Timeout:   time.Duration(cfg.CloudTimeout) * time.Second,
		}
	}
	if cfg.FormatPunc {
		engineCfg.Punc = &recognize.PunctuatorConfig{
			ModelPath:  cfg.PuncModel,
			VocabPath:  cfg.PuncVocab,
			TagsPath:   cfg.PuncTags,
			NumThreads: cfg.PuncThreads,
		}
	}

	recognizer, err := recognize.NewRecognizer(engineCfg)
	if err != nil {
		log.Fatal("Failed to initialize recognizer:", err)
	}
	defer recognizer.Close()

	punc, err := recognize.NewPunctuator(engineCfg.Punc)
	if err != nil {
		log.Fatal("Failed to initialize punctuator:", err)
	}
	if punc != nil {
		defer punc.Close()
	}

	post := recognize.PostProcessor{
		FormatSpell: cfg.FormatSpell,
		FormatPunc:  cfg.FormatPunc,
		FormatNum:   cfg.FormatNum,
		Punc:        punc,
	}
	if cfg.FormatNum {
		post.ITN = recognize.NewChineseITN()
	}

	live := recognize.NewLiveSet()
	in := queue.NewTaskQueue()
	out := queue.NewResultQueue()

	worker := recognize.NewWorker(recognizer, post, live)
	mgr := conn.NewManager(live, in, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx, in, out)
	go mgr.Dispatch(ctx)

	http.Handle("/ws", mgr)

	log.Printf("Starting dictation server on %s (engine=%s)", cfg.Addr, cfg.EngineKind)
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		log.Fatal("ListenAndServe:", err)
	}
}
