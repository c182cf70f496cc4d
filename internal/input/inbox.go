package input

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const inboxDebounce = 50 * time.Millisecond

// Inbox watches a file that receives incoming SMS bodies. Every write that
// leaves non-empty content produces one message.
type Inbox struct {
	path     string
	watcher  *fsnotify.Watcher
	messages chan string
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// WatchInbox starts watching path. The parent directory is created if it
// does not exist yet.
func WatchInbox(ctx context.Context, path string, log *slog.Logger) (*Inbox, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch inbox dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	in := &Inbox{
		path:     path,
		watcher:  watcher,
		messages: make(chan string, 4),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go in.loop()
	return in, nil
}

// Messages is closed when the inbox is closed.
func (in *Inbox) Messages() <-chan string { return in.messages }

func (in *Inbox) Close() error {
	var err error
	in.once.Do(func() {
		in.cancel()
		err = in.watcher.Close()
		<-in.done
	})
	return err
}

func (in *Inbox) loop() {
	defer close(in.done)
	defer close(in.messages)

	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-in.ctx.Done():
			return

		case event, ok := <-in.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(in.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(inboxDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			body, err := os.ReadFile(in.path)
			if err != nil {
				in.log.Warn("read inbox", "path", in.path, "err", err)
				continue
			}
			text := strings.TrimSpace(string(body))
			if text == "" {
				continue
			}
			select {
			case in.messages <- text:
			case <-in.ctx.Done():
				return
			}

		case err, ok := <-in.watcher.Errors:
			if !ok {
				return
			}
			in.log.Warn("inbox watcher", "err", err)
		}
	}
}

// WriteInbox replaces the inbox file with body. The file is swapped in by
// rename so the watcher never reads a partial message.
func WriteInbox(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
