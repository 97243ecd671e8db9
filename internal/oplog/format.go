package oplog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/GoPolymarket/oplog/internal/config"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/fatih/color"
)

const (
	requestLabel  = "requestInfo:"
	responseLabel = "responseResult:"
)

// Formatter renders snapshots and results as labelled, colored JSON.
type Formatter struct {
	prettyRequest  bool
	prettyResponse bool
	redactKeys     map[string]struct{}

	requestColor *color.Color
	successColor *color.Color
	failColor    *color.Color

	log *slog.Logger
}

func NewFormatter(cfg config.LogConfig, log *slog.Logger) *Formatter {
	f := &Formatter{
		prettyRequest:  cfg.RequestLogFormat,
		prettyResponse: cfg.ResponseLogFormat,
		redactKeys:     make(map[string]struct{}, len(cfg.RedactKeys)),
		requestColor:   color.New(color.FgGreen),
		successColor:   color.New(color.FgBlue),
		failColor:      color.New(color.FgRed),
		log:            log,
	}
	for _, k := range cfg.RedactKeys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			f.redactKeys[k] = struct{}{}
		}
	}
	for _, c := range []*color.Color{f.requestColor, f.successColor, f.failColor} {
		if cfg.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// FormatRequest never fails: on a serialization error only the label is kept.
func (f *Formatter) FormatRequest(info *model.RequestInfo) string {
	text := requestLabel
	body, err := f.marshal(info, f.prettyRequest)
	if err != nil {
		f.log.Error("格式化请求信息日志异常", "error", err)
	} else {
		text += body
	}
	return f.requestColor.Sprint(text)
}

func (f *Formatter) FormatResponse(result *model.ApiResult) string {
	text := responseLabel
	body, err := f.marshal(result, f.prettyResponse)
	if err != nil {
		f.log.Error("格式化响应日志异常", "error", err)
		return text
	}
	text += body
	if result.Code == model.SuccessCode {
		return f.successColor.Sprint(text)
	}
	return f.failColor.Sprint(text)
}

func (f *Formatter) marshal(v any, pretty bool) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if len(f.redactKeys) > 0 {
		if raw, err = f.redact(raw); err != nil {
			return "", err
		}
	}
	if pretty {
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return "", err
		}
		return "\n" + out.String(), nil
	}
	return string(raw), nil
}

// redact rewrites raw token by token, masking the values of redacted keys.
// Key order and number literals are kept as marshalled.
func (f *Formatter) redact(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out bytes.Buffer
	if err := f.redactNext(dec, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (f *Formatter) redactNext(dec *json.Decoder, out *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			out.WriteByte('{')
			for first := true; dec.More(); first = false {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				if !first {
					out.WriteByte(',')
				}
				writeJSONString(out, key)
				out.WriteByte(':')
				if _, ok := f.redactKeys[strings.ToLower(strings.TrimSpace(key))]; ok {
					var skipped json.RawMessage
					if err := dec.Decode(&skipped); err != nil {
						return err
					}
					writeJSONString(out, "***")
					continue
				}
				if err := f.redactNext(dec, out); err != nil {
					return err
				}
			}
			out.WriteByte('}')
		case '[':
			out.WriteByte('[')
			for first := true; dec.More(); first = false {
				if !first {
					out.WriteByte(',')
				}
				if err := f.redactNext(dec, out); err != nil {
					return err
				}
			}
			out.WriteByte(']')
		}
		// closing delimiter
		_, err := dec.Token()
		return err
	case string:
		writeJSONString(out, t)
	case json.Number:
		out.WriteString(t.String())
	case bool:
		out.WriteString(strconv.FormatBool(t))
	case nil:
		out.WriteString("null")
	}
	return nil
}

func writeJSONString(out *bytes.Buffer, s string) {
	raw, _ := json.Marshal(s)
	out.Write(raw)
}

// Printer emits formatted text; the level follows the response code.
type Printer struct {
	log *slog.Logger
}

func NewPrinter(log *slog.Logger) *Printer {
	return &Printer{log: log}
}

func (p *Printer) PrintRequest(text string) {
	p.log.Info(text)
}

func (p *Printer) PrintResponse(code int, text string) {
	if code == model.SuccessCode {
		p.log.Info(text)
		return
	}
	p.log.Error(text)
}

func (p *Printer) PrintMerged(code int, requestText, responseText string) {
	p.PrintResponse(code, requestText+"\n"+responseText)
}

// PrintPolicy decides when request and response text are emitted.
type PrintPolicy struct {
	mode      string
	formatter *Formatter
	printer   *Printer
}

func NewPrintPolicy(mode string, formatter *Formatter, printer *Printer) *PrintPolicy {
	return &PrintPolicy{mode: mode, formatter: formatter, printer: printer}
}

// Request prints the snapshot now under ORDER, otherwise defers it on corr.
func (p *PrintPolicy) Request(corr *Correlation, info *model.RequestInfo) {
	text := p.formatter.FormatRequest(info)
	if p.mode == config.PrintOrder {
		p.printer.PrintRequest(text)
		return
	}
	corr.SetPending(text)
}

// Response handles the response half. Only ApiResult values are printed.
func (p *PrintPolicy) Response(corr *Correlation, result any) {
	apiResult, ok := result.(*model.ApiResult)
	if !ok || apiResult == nil {
		return
	}
	text := p.formatter.FormatResponse(apiResult)
	pending := corr.Pending()

	switch p.mode {
	case config.PrintLine:
		if pending != "" {
			p.printer.PrintRequest(pending)
		}
		p.printer.PrintResponse(apiResult.Code, text)
	case config.PrintMerge:
		if pending == "" {
			p.printer.PrintResponse(apiResult.Code, text)
			return
		}
		p.printer.PrintMerged(apiResult.Code, pending, text)
	default:
		p.printer.PrintResponse(apiResult.Code, text)
	}
}

// Failure flushes deferred request text together with the endpoint error.
func (p *PrintPolicy) Failure(corr *Correlation, err error) {
	if p.mode == config.PrintOrder {
		return
	}
	if pending := corr.Pending(); pending != "" {
		p.printer.log.Error(pending, "error", err)
	}
}
