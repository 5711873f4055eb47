package countries

import (
	"context"
	"time"

	"globe-quiz/internal/logger"
)

// StartRefresh：后台按固定周期重新下载并整体替换目录
// 约束：every<=0 时不启动；失败只记录日志，保留旧目录；ctx 取消后退出
// onSwap 在替换成功后调用（如重建计分表），可为 nil
func StartRefresh(ctx context.Context, src *Source, h *Holder, opts Options, every time.Duration, onSwap func(*Catalog)) {
	if every <= 0 {
		return
	}
	l := logger.L()
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			l.Info("dataset_refresh_start")
			b, err := src.Download(ctx)
			if err != nil {
				l.Error("dataset_refresh_error", "err", err)
				continue
			}
			cat, rep, err := Parse(b, opts)
			if err != nil || cat.Len() == 0 {
				l.Error("dataset_refresh_parse_error", "err", err, "kept", rep.Kept)
				continue
			}
			src.remember(ctx, b)
			h.Set(cat)
			if onSwap != nil {
				onSwap(cat)
			}
			l.Info("dataset_refresh_done", "kept", rep.Kept, "dropped", rep.Total-rep.Kept)
		}
	}()
}
