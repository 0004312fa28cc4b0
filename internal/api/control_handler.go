package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/monitor"
	"github.com/taoyao-code/monitorctl/internal/preset"
	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
	"github.com/taoyao-code/monitorctl/internal/storage/gormrepo"
	"github.com/taoyao-code/monitorctl/internal/storage/models"
)

// AuditLister 审计查询，gormrepo.AuditRepository 实现该接口
type AuditLister interface {
	List(ctx context.Context, f gormrepo.AuditFilter) ([]models.AuditRecord, error)
}

// ControlHandler 显示器控制API处理器
type ControlHandler struct {
	ctrl    *monitor.Controller
	presets *preset.Book
	audit   AuditLister
	logger  *zap.Logger
}

// NewControlHandler 创建控制API处理器，presets 与 audit 可为 nil
func NewControlHandler(ctrl *monitor.Controller, presets *preset.Book, audit AuditLister, logger *zap.Logger) *ControlHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ControlHandler{ctrl: ctrl, presets: presets, audit: audit, logger: logger}
}

// PropertyView 属性描述与（可选）当前值
type PropertyView struct {
	Name   string   `json:"name"`
	Group  string   `json:"group"`
	Opcode string   `json:"opcode"`
	Access string   `json:"access"`
	Policy string   `json:"policy"`
	Values []string `json:"values,omitempty"`
	Value  any      `json:"value,omitempty"`
	Text   string   `json:"text,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func viewOf(d *property.Descriptor) PropertyView {
	v := PropertyView{
		Name:   d.Name,
		Group:  d.Group,
		Opcode: fmt.Sprintf("0x%02X", d.Opcode),
		Access: d.Access.String(),
		Policy: d.Policy.String(),
	}
	if e, ok := d.Codec.(*property.Enum); ok {
		for _, m := range e.Members() {
			v.Values = append(v.Values, m.Name)
		}
	}
	return v
}

// jsonValue 数值与结构体原样输出，枚举输出成员名
func jsonValue(d *property.Descriptor, v property.Value) any {
	switch x := v.(type) {
	case uint32, property.RGB, property.FlagSet:
		return x
	default:
		return d.Codec.Format(v)
	}
}

func (h *ControlHandler) resolve(c *gin.Context, dir dell.Direction) (*property.Descriptor, bool) {
	d, err := h.ctrl.Registry().Resolve(c.Param("name"))
	if err != nil {
		failWith(c, http.StatusNotFound, monitor.KindUnsupported, err.Error())
		return nil, false
	}
	if err := property.AssertDirection(d, dir); err != nil {
		failWith(c, http.StatusMethodNotAllowed, monitor.KindUnsupported, err.Error())
		return nil, false
	}
	return d, true
}

// ListProperties 属性列表
// @Summary 属性列表
// @Description 列出全部属性；values=true 时逐个读取当前值
// @Tags 显示器控制
// @Produce json
// @Security ApiKeyAuth
// @Param values query bool false "是否读取当前值"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/properties [get]
func (h *ControlHandler) ListProperties(c *gin.Context) {
	withValues, _ := strconv.ParseBool(c.DefaultQuery("values", "false"))
	if !withValues {
		all := h.ctrl.Registry().All()
		out := make([]PropertyView, 0, len(all))
		for _, d := range all {
			out = append(out, viewOf(d))
		}
		c.JSON(http.StatusOK, gin.H{"properties": out})
		return
	}

	readings, err := h.ctrl.ReadAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]PropertyView, 0, len(readings))
	for _, r := range readings {
		v := viewOf(r.Descriptor)
		if r.Err != nil {
			v.Error = monitor.Kind(r.Err)
		} else {
			v.Value = jsonValue(r.Descriptor, r.Value)
			v.Text = r.Text()
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"properties": out})
}

// GetProperty 读取属性
// @Summary 读取属性当前值
// @Tags 显示器控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "属性名"
// @Success 200 {object} PropertyView "成功"
// @Failure 404 {object} map[string]interface{} "未知属性"
// @Failure 503 {object} map[string]interface{} "串口不可用"
// @Router /api/properties/{name} [get]
func (h *ControlHandler) GetProperty(c *gin.Context) {
	d, ok := h.resolve(c, dell.Read)
	if !ok {
		return
	}
	v, err := h.ctrl.Get(c.Request.Context(), d.Name)
	if err != nil {
		fail(c, err)
		return
	}
	view := viewOf(d)
	view.Value = jsonValue(d, v)
	view.Text = d.Codec.Format(v)
	c.JSON(http.StatusOK, view)
}

// SetRequest 写入请求，value 可为字符串、数字或 {red,green,blue}
type SetRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// SetProperty 写入属性
// @Summary 写入属性值
// @Tags 显示器控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "属性名"
// @Param request body SetRequest true "写入值"
// @Success 200 {object} PropertyView "成功"
// @Failure 422 {object} map[string]interface{} "值域外"
// @Router /api/properties/{name} [put]
func (h *ControlHandler) SetProperty(c *gin.Context) {
	d, ok := h.resolve(c, dell.Write)
	if !ok {
		return
	}
	var req SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := c.Request.Context()
	var (
		v   property.Value
		err error
	)
	raw := bytes.TrimSpace(req.Value)
	switch {
	case len(raw) > 0 && raw[0] == '{':
		// 先按整数解码，通道越界交给编解码器报 ParameterOverRange
		var rgb struct {
			Red   int64 `json:"red"`
			Green int64 `json:"green"`
			Blue  int64 `json:"blue"`
		}
		if err := json.Unmarshal(raw, &rgb); err != nil {
			failWith(c, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		v, err = h.ctrl.SetText(ctx, d.Name, fmt.Sprintf("%d,%d,%d", rgb.Red, rgb.Green, rgb.Blue))
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			failWith(c, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		v, err = h.ctrl.SetText(ctx, d.Name, s)
	case string(raw) == "true" || string(raw) == "false":
		text := "Off"
		if string(raw) == "true" {
			text = "On"
		}
		v, err = h.ctrl.SetText(ctx, d.Name, text)
	default:
		v, err = h.ctrl.SetText(ctx, d.Name, string(raw))
	}
	if err != nil {
		fail(c, err)
		return
	}
	view := viewOf(d)
	view.Value = jsonValue(d, v)
	view.Text = d.Codec.Format(v)
	c.JSON(http.StatusOK, view)
}

// StepProperty 相对调整
// @Summary 相对调整（up/down）
// @Description 有界整数越界时保持原值，枚举越过两端回绕
// @Tags 显示器控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "属性名"
// @Param direction query string false "up|down（默认 up）"
// @Success 200 {object} PropertyView "成功"
// @Router /api/properties/{name}/step [post]
func (h *ControlHandler) StepProperty(c *gin.Context) {
	d, ok := h.resolve(c, dell.Write)
	if !ok {
		return
	}
	step, err := property.ParseStep(c.DefaultQuery("direction", "up"))
	if err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	v, err := h.ctrl.Step(c.Request.Context(), d.Name, step)
	if err != nil {
		if monitor.Kind(err) == monitor.KindUnsupported {
			failWith(c, http.StatusMethodNotAllowed, monitor.KindUnsupported, err.Error())
			return
		}
		fail(c, err)
		return
	}
	view := viewOf(d)
	view.Value = jsonValue(d, v)
	view.Text = d.Codec.Format(v)
	c.JSON(http.StatusOK, view)
}

// InvokeAction 执行复位类动作
// @Summary 执行动作
// @Tags 显示器控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "动作名，如 reset_color"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/actions/{name} [post]
func (h *ControlHandler) InvokeAction(c *gin.Context) {
	d, ok := h.resolve(c, dell.Write)
	if !ok {
		return
	}
	if !d.Action() {
		failWith(c, http.StatusMethodNotAllowed, monitor.KindUnsupported, d.Name+" is not an action")
		return
	}
	if err := h.ctrl.Invoke(c.Request.Context(), d.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": d.Name, "result": monitor.KindOK})
}

// ListPresets 预设列表
// @Summary 预设列表
// @Tags 预设
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/presets [get]
func (h *ControlHandler) ListPresets(c *gin.Context) {
	if h.presets == nil {
		c.JSON(http.StatusOK, gin.H{"presets": []*preset.Preset{}})
		return
	}
	out := make([]*preset.Preset, 0, len(h.presets.Presets))
	for _, name := range h.presets.Names() {
		p, _ := h.presets.Get(name)
		out = append(out, p)
	}
	c.JSON(http.StatusOK, gin.H{"presets": out})
}

// ApplyPreset 应用预设
// @Summary 应用预设
// @Description 依次写入预设中的属性，遇到第一个错误停止
// @Tags 预设
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "预设名"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/presets/{name} [post]
func (h *ControlHandler) ApplyPreset(c *gin.Context) {
	if h.presets == nil {
		fail(c, preset.ErrNotFound)
		return
	}
	p, err := h.presets.Get(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	applied, err := preset.Apply(c.Request.Context(), h.ctrl, p)
	if err != nil {
		c.AbortWithStatusJSON(statusFor(err), gin.H{
			"error":      monitor.Kind(err),
			"message":    err.Error(),
			"applied":    applied,
			"total":      len(p.Steps),
			"request_id": monitor.RequestID(c.Request.Context()),
		})
		return
	}
	h.logger.Info("preset applied", zap.String("preset", p.Name), zap.Int("steps", applied))
	c.JSON(http.StatusOK, gin.H{"preset": p.Name, "applied": applied, "total": len(p.Steps)})
}

// QueryRequest 原始命令
type QueryRequest struct {
	Direction string `json:"direction"`
	Opcode    string `json:"opcode" binding:"required"`
	Data      string `json:"data"`
}

// Query 发送原始命令
// @Summary 原始命令
// @Description 不经属性表直接发送一条命令，返回校验后的应答数据（hex）
// @Tags 显示器控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body QueryRequest true "命令"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/query [post]
func (h *ControlHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	dir := dell.Read
	switch strings.ToLower(req.Direction) {
	case "", "read", "r":
	case "write", "w":
		dir = dell.Write
	default:
		failWith(c, http.StatusBadRequest, "bad_request", "direction must be read or write")
		return
	}
	op, err := parseByte(req.Opcode)
	if err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	payload, err := hex.DecodeString(strings.ReplaceAll(req.Data, " ", ""))
	if err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", "data: "+err.Error())
		return
	}
	data, err := h.ctrl.Query(c.Request.Context(), dir, op, payload)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"opcode": fmt.Sprintf("0x%02X", op), "data": fmt.Sprintf("% X", data)}
	if d, ok := h.ctrl.Registry().Lookup(op, payload); ok && dir == dell.Read {
		resp["property"] = d.Name
		if v, err := d.Decode(data); err == nil {
			resp["text"] = d.Codec.Format(v)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Scan 扫描命令码
// @Summary 扫描命令码
// @Description 依次读取 [from, to] 内的命令码，返回设备成功应答的部分
// @Tags 显示器控制
// @Produce json
// @Security ApiKeyAuth
// @Param from query string false "起始命令码（默认 0x00）"
// @Param to query string false "结束命令码（默认 0xFF）"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/scan [get]
func (h *ControlHandler) Scan(c *gin.Context) {
	from, err := parseByte(c.DefaultQuery("from", "0x00"))
	if err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", "from: "+err.Error())
		return
	}
	to, err := parseByte(c.DefaultQuery("to", "0xFF"))
	if err != nil {
		failWith(c, http.StatusBadRequest, "bad_request", "to: "+err.Error())
		return
	}
	if from > to {
		failWith(c, http.StatusBadRequest, "bad_request", "from must not exceed to")
		return
	}
	results, err := h.ctrl.Scan(c.Request.Context(), from, to, nil)
	if err != nil {
		fail(c, err)
		return
	}
	type item struct {
		Opcode   string `json:"opcode"`
		Property string `json:"property,omitempty"`
		Data     string `json:"data"`
	}
	out := make([]item, 0, len(results))
	for _, r := range results {
		out = append(out, item{
			Opcode:   fmt.Sprintf("0x%02X", r.Opcode),
			Property: r.Property,
			Data:     fmt.Sprintf("% X", r.Data),
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// ListAudit 审计记录
// @Summary 审计记录
// @Tags 审计
// @Produce json
// @Security ApiKeyAuth
// @Param property query string false "按属性过滤"
// @Param limit query int false "每页数量(默认100)"
// @Param offset query int false "偏移量(默认0)"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/audit [get]
func (h *ControlHandler) ListAudit(c *gin.Context) {
	if h.audit == nil {
		failWith(c, http.StatusServiceUnavailable, "audit_disabled", "audit trail is not enabled")
		return
	}
	f := gormrepo.AuditFilter{Property: c.Query("property"), Limit: 100}
	if v := c.Query("limit"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil {
			f.Limit = vv
		}
	}
	if v := c.Query("offset"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil {
			f.Offset = vv
		}
	}
	list, err := h.audit.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list audit failed", zap.Error(err))
		failWith(c, http.StatusInternalServerError, monitor.KindInternal, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

func parseByte(s string) (byte, error) {
	n, err := property.ParseUint(s, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid opcode %q", s)
	}
	return byte(n), nil
}
