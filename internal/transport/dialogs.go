package transport

import (
	"context"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

type dialogsHandler struct {
	ctx context.Context
}

func NewDialogsHandler(ctx context.Context) DialogHandler {
	return &dialogsHandler{
		ctx: ctx,
	}
}

func (h *dialogsHandler) OpenDirectoryDialog() (string, error) {
	selection, err := wailsruntime.OpenDirectoryDialog(h.ctx, wailsruntime.OpenDialogOptions{
		Title: "Select the folder containing your invoices",
	})

	if err != nil {
		return "", err
	}

	return selection, nil
}

func (h *dialogsHandler) OpenPath(path string) error {
	wailsruntime.BrowserOpenURL(h.ctx, "file://"+path)
	return nil
}
