// Package app 骨骼姿态调试查看器
//
// 查看器把描述集合加载到 assets.Library，为选中的骨骼创建角色并逐帧绘制。
// 桌面端通过 main.go 调用 NewApp()。
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/gonewx/skelpose/pkg/assets"
	"github.com/gonewx/skelpose/pkg/components"
	"github.com/gonewx/skelpose/pkg/config"
	"github.com/gonewx/skelpose/pkg/ecs"
	"github.com/gonewx/skelpose/pkg/engine"
	"github.com/gonewx/skelpose/pkg/game"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/render"
	"github.com/gonewx/skelpose/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"
)

// quickSaveKey F5/F9 使用的场景快照键名
const quickSaveKey = "quicksave"

// 主角色和挂载角色的名称
const (
	mainActor  = "main"
	propActor  = "prop"
	speedStep  = 0.25
	zoomFactor = 1.1
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool

	// Engine 引擎配置
	Engine config.EngineConfig

	// EmbeddedFS 内嵌数据文件系统（Engine.Assets.Embedded 时使用）
	EmbeddedFS fs.FS

	// SetName 启动时显示的描述集合，为空则使用第一个
	SetName string

	// Skeleton 启动时显示的骨骼，优先于 SetName（按骨骼查找所在集合）
	Skeleton string

	// Animation 启动时播放的动画，为空则使用骨骼的第一个动画
	Animation string
}

// reloadEvent 热重载事件，从 watcher goroutine 传递到更新线程
type reloadEvent struct {
	name string
	eng  *engine.Engine
}

// App 调试查看器，实现 ebiten.Game 接口
type App struct {
	cfg config.EngineConfig

	library     *assets.Library
	closeSource func() error
	watcher     *assets.Watcher
	cancel      context.CancelFunc
	reloads     chan reloadEvent

	stage     *Stage
	images    *render.ImageCache
	camera    render.Camera
	snapshots *game.SnapshotStore

	setNames  []string
	setIndex  int
	showBones bool
	paused    bool
	status    string
	saveCount int

	hovered    ecs.EntityID
	hasHovered bool

	dragging     bool
	dragX, dragY int

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化查看器
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	source, closeSource, err := OpenSource(cfg.Engine.Assets, cfg.EmbeddedFS)
	if err != nil {
		return nil, err
	}

	library := assets.NewLibrary(source)
	if err := library.LoadAll(); err != nil {
		// 部分集合加载失败不是致命错误
		log.Printf("[App] Warning: %v", err)
	}
	names := library.Names()
	if len(names) == 0 {
		closeSource()
		return nil, fmt.Errorf("no descriptor sets found in %s", cfg.Engine.Assets.Dir)
	}

	a := &App{
		cfg:         cfg.Engine,
		library:     library,
		closeSource: closeSource,
		reloads:     make(chan reloadEvent, 16),
		stage:       NewStage(library, cfg.Engine.Playback.Speed),
		camera: render.NewCamera(
			float64(cfg.Engine.Viewer.Width)/2,
			float64(cfg.Engine.Viewer.Height)*0.75,
			150,
		),
		setNames:  names,
		showBones: cfg.Engine.Viewer.ShowBones,
	}

	imageFS, imageDir := a.imageSource(cfg)
	a.images = render.NewImageCache(imageFS, imageDir)

	// 存档
	if cfg.Engine.Snapshots.AppName != "" {
		store, err := game.OpenSnapshotStore(cfg.Engine.Snapshots.AppName)
		if err != nil {
			log.Printf("[App] Warning: %v (snapshots disabled)", err)
			store = game.NewSnapshotStore(nil)
		}
		a.snapshots = store
	} else {
		a.snapshots = game.NewSnapshotStore(nil)
	}
	a.refreshSaveCount()

	// 热重载
	library.OnReload(func(name string, eng *engine.Engine) {
		a.reloads <- reloadEvent{name: name, eng: eng}
	})
	if cfg.Engine.Assets.Watch && !cfg.Engine.Assets.Embedded && cfg.Engine.Assets.ResourceFile == "" {
		if err := a.startWatcher(cfg.Engine.Assets.Dir); err != nil {
			log.Printf("[App] Warning: hot reload disabled: %v", err)
		}
	}

	setName := cfg.SetName
	if cfg.Skeleton != "" {
		_, owner, ok := library.FindSkeleton(cfg.Skeleton)
		if !ok {
			a.Close()
			return nil, fmt.Errorf("no descriptor set defines skeleton %q", cfg.Skeleton)
		}
		setName = owner
	}
	for i, name := range names {
		if name == setName {
			a.setIndex = i
		}
	}
	if err := a.showSet(a.setNames[a.setIndex], cfg.Skeleton, cfg.Animation); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// imageSource 精灵图片与描述文件放在同一目录
func (a *App) imageSource(cfg Config) (fs.FS, string) {
	switch {
	case cfg.Engine.Assets.ResourceFile != "":
		return nil, ""
	case cfg.Engine.Assets.Embedded:
		return cfg.EmbeddedFS, cfg.Engine.Assets.Dir
	default:
		return os.DirFS(cfg.Engine.Assets.Dir), "."
	}
}

func (a *App) startWatcher(dir string) error {
	w, err := assets.NewWatcher(dir)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.watcher = w
	a.cancel = cancel
	go a.library.Watch(ctx, w)
	log.Printf("[App] Watching %s for changes", dir)
	return nil
}

// Close 停止热重载并关闭资源
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	errs = append(errs, a.closeSource())
	return errors.Join(errs...)
}

// showSet 清空场景并显示集合 setName 的骨骼 skeletonID，为空时使用第一个骨骼
func (a *App) showSet(setName, skeletonID, animationID string) error {
	eng, ok := a.library.Get(setName)
	if !ok {
		return fmt.Errorf("unknown descriptor set %q", setName)
	}
	if skeletonID == "" {
		skeletons := eng.Set().SkeletonIDs()
		if len(skeletons) == 0 {
			return fmt.Errorf("descriptor set %q has no skeletons", setName)
		}
		skeletonID = skeletons[0]
	}

	if animationID == "" {
		ids := eng.Set().AnimationIDs(skeletonID)
		if len(ids) == 0 {
			return fmt.Errorf("skeleton %q has no animations", skeletonID)
		}
		animationID = ids[0]
	}

	a.stage.Clear()
	a.hasHovered = false
	if _, err := a.stage.Spawn(mainActor, setName, skeletonID, animationID, geom.Identity()); err != nil {
		return err
	}
	a.status = fmt.Sprintf("set %s", setName)
	return nil
}

// Update 更新查看器逻辑
// 每个 tick 调用一次
func (a *App) Update() error {
	a.drainReloads()
	a.handleWindowKeys()
	a.handleInput()

	dt := a.cfg.TickSeconds()
	if a.paused {
		dt = 0
	}
	a.stage.Update(dt)

	mx, my := ebiten.CursorPosition()
	wx, wy := a.camera.ToWorld(float64(mx), float64(my))
	a.hovered, a.hasHovered = a.stage.Hover.Update(wx, wy)
	return nil
}

// drainReloads 在更新线程中应用热重载结果
func (a *App) drainReloads() {
	for {
		select {
		case ev := <-a.reloads:
			a.images.Invalidate()
			n := a.stage.Animation.Rebind(ev.name, ev.eng)
			a.setNames = a.library.Names()
			a.status = fmt.Sprintf("reloaded %s (%d actors)", ev.name, n)
		default:
			return
		}
	}
}

func (a *App) handleWindowKeys() {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.cfg.Viewer.Width, a.cfg.Viewer.Height)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}
}

func (a *App) handleInput() {
	main, ok := a.stage.Find(mainActor)
	if !ok {
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		a.paused = !a.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		a.stepAnimation(main, 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		a.stepAnimation(main, -1)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		a.changeSpeed(main, speedStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		a.changeSpeed(main, -speedStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		a.stage.Command(main, components.AnimationCommandComponent{Stop: true})
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		a.showBones = !a.showBones
	case inpututil.IsKeyJustPressed(ebiten.KeyTab) && len(a.setNames) > 0:
		a.setIndex = (a.setIndex + 1) % len(a.setNames)
		if err := a.showSet(a.setNames[a.setIndex], "", ""); err != nil {
			a.status = err.Error()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		a.toggleProp(main)
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		anim, _ := a.stage.Animator(main)
		if err := a.library.Reload(anim.SetName); err != nil {
			a.status = err.Error()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		a.quickSave()
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		a.quickLoad()
	case inpututil.IsKeyJustPressed(ebiten.KeyF6):
		a.saveActor(a.selected(main))
	case inpututil.IsKeyJustPressed(ebiten.KeyF7):
		a.loadActor(a.selected(main))
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete):
		a.clearSaves()
	}

	// 鼠标：滚轮缩放，右键拖动平移，左键点击悬停角色切换到下一个动画（排队）
	mx, my := ebiten.CursorPosition()
	if _, wheel := ebiten.Wheel(); wheel != 0 {
		factor := zoomFactor
		if wheel < 0 {
			factor = 1 / zoomFactor
		}
		a.camera.Zoom(factor, float64(mx), float64(my))
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		a.dragging, a.dragX, a.dragY = true, mx, my
	}
	if a.dragging {
		a.camera.Pan(float64(mx-a.dragX), float64(my-a.dragY))
		a.dragX, a.dragY = mx, my
		if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
			a.dragging = false
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && a.hasHovered {
		if next, ok := a.nextAnimation(a.hovered, 1); ok {
			a.stage.Command(a.hovered, components.AnimationCommandComponent{AnimationID: next, Queue: true})
		}
	}
}

// nextAnimation 返回角色骨骼的第 step 个相邻动画
func (a *App) nextAnimation(id ecs.EntityID, step int) (string, bool) {
	anim, ok := a.stage.Animator(id)
	if !ok {
		return "", false
	}
	eng, ok := a.stage.Engine(id)
	if !ok {
		return "", false
	}
	ids := eng.Set().AnimationIDs(anim.Player.Skeleton().ID)
	if len(ids) == 0 {
		return "", false
	}
	current := 0
	for i, animID := range ids {
		if animID == anim.Player.AnimationID() {
			current = i
		}
	}
	return ids[((current+step)%len(ids)+len(ids))%len(ids)], true
}

func (a *App) stepAnimation(id ecs.EntityID, step int) {
	if next, ok := a.nextAnimation(id, step); ok {
		a.stage.Command(id, components.AnimationCommandComponent{AnimationID: next})
		a.status = "play " + next
	}
}

func (a *App) changeSpeed(id ecs.EntityID, delta float64) {
	anim, ok := a.stage.Animator(id)
	if !ok {
		return
	}
	speed := max(0, anim.Player.Speed()+delta)
	a.stage.Command(id, components.AnimationCommandComponent{Speed: &speed})
	a.status = fmt.Sprintf("speed %.2f", speed)
}

// toggleProp 在主角色最后一根骨骼上挂一个缩小的同骨骼角色，再按一次移除
func (a *App) toggleProp(main ecs.EntityID) {
	if prop, ok := a.stage.Find(propActor); ok {
		a.stage.Remove(prop)
		a.status = "prop removed"
		return
	}

	anim, _ := a.stage.Animator(main)
	skel := anim.Player.Skeleton()
	bone := skel.Bones[len(skel.Bones)-1].ID

	prop, err := a.stage.Spawn(propActor, anim.SetName, skel.ID, anim.Player.AnimationID(), geom.Identity())
	if err != nil {
		a.status = err.Error()
		return
	}
	a.stage.Attach(prop, main, bone, geom.Transform{ScaleX: 0.4, ScaleY: 0.4})
	a.status = "prop attached to " + bone
}

func (a *App) quickSave() {
	if err := a.snapshots.SaveScene(quickSaveKey, a.stage.Snapshot()); err != nil {
		a.status = err.Error()
		return
	}
	a.status = "saved"
	a.refreshSaveCount()
	if !a.snapshots.Persistent() {
		a.status = "snapshots disabled"
	}
}

func (a *App) quickLoad() {
	scene, found, err := a.snapshots.LoadScene(quickSaveKey)
	switch {
	case err != nil:
		a.status = err.Error()
	case !found:
		a.status = "no quicksave"
	default:
		n, err := a.stage.Restore(scene)
		a.status = fmt.Sprintf("restored %d actors", n)
		if err != nil {
			a.status += ": " + err.Error()
		}
	}
}

// selected 悬停中的角色，没有时为主角色
func (a *App) selected(main ecs.EntityID) ecs.EntityID {
	if a.hasHovered {
		return a.hovered
	}
	return main
}

func (a *App) saveActor(id ecs.EntityID) {
	if err := a.stage.SaveActor(a.snapshots, id); err != nil {
		a.status = err.Error()
		return
	}
	a.status = "saved " + a.stage.Name(id)
	a.refreshSaveCount()
}

func (a *App) loadActor(id ecs.EntityID) {
	found, err := a.stage.LoadActor(a.snapshots, id)
	switch {
	case err != nil:
		a.status = err.Error()
	case !found:
		a.status = "no snapshot for " + a.stage.Name(id)
	default:
		a.status = "restored " + a.stage.Name(id)
	}
}

func (a *App) clearSaves() {
	n, err := a.snapshots.Clear()
	if err != nil {
		a.status = err.Error()
	} else {
		a.status = fmt.Sprintf("deleted %d snapshot(s)", n)
	}
	a.refreshSaveCount()
}

// refreshSaveCount 更新状态栏中的存档数量（gdata 读文件，不在每帧调用）
func (a *App) refreshSaveCount() {
	actors, err := a.snapshots.Keys()
	if err != nil {
		log.Printf("[App] Warning: %v", err)
	}
	scenes, err := a.snapshots.SceneKeys()
	if err != nil {
		log.Printf("[App] Warning: %v", err)
	}
	a.saveCount = len(actors) + len(scenes)
}

// Draw 绘制画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Darkslategray)
	a.drawGround(screen)

	for _, id := range a.stage.Actors() {
		anim, ok := a.stage.Animator(id)
		if !ok || anim.Player == nil {
			continue
		}
		skel := anim.Player.Skeleton()
		world := systems.WorldPose(a.stage.EntityManager, id)
		render.DrawPose(screen, skel, world, a.images, a.camera)
		if a.showBones {
			render.DrawBones(screen, skel, world, a.camera)
			a.drawRegion(screen, id, world)
		}
	}

	ebitenutil.DebugPrint(screen, a.statusText())
}

// drawGround 世界 y=0 处的地平线
func (a *App) drawGround(screen *ebiten.Image) {
	_, y := a.camera.ToScreen(0, 0)
	vector.StrokeLine(screen, 0, float32(y), float32(a.cfg.Viewer.Width), float32(y), 1, colornames.Dimgray, false)
}

func (a *App) drawRegion(screen *ebiten.Image, id ecs.EntityID, world map[string]geom.Transform) {
	hover, ok := ecs.GetComponent[*components.HoverComponent](a.stage.EntityManager, id)
	if !ok || hover.Region.Empty() {
		return
	}
	anim, _ := a.stage.Animator(id)
	skel := anim.Player.Skeleton()
	boneID := hover.BoneID
	if boneID == "" {
		boneID = skel.Bones[0].ID
	}
	bone, ok := skel.Bone(boneID)
	if !ok {
		return
	}
	var clr color.Color = colornames.Lightgray
	if hover.Hovered {
		clr = colornames.Gold
	}
	render.DrawRegion(screen, hover.Region, world[boneID], bone.Source, bone.SpriteScale, a.camera, clr)
}

func (a *App) statusText() string {
	text := fmt.Sprintf("TPS %.0f  sets: %d  saves: %d  [%s]\n", ebiten.ActualTPS(), len(a.setNames), a.saveCount, a.status)
	for _, id := range a.stage.Actors() {
		anim, ok := a.stage.Animator(id)
		if !ok || anim.Player == nil {
			continue
		}
		p := anim.Player
		text += fmt.Sprintf("%s: %s/%s %s t=%.3f/%.3f x%.2f loops=%d finished=%d\n",
			a.stage.Name(id), p.Skeleton().ID, p.AnimationID(), p.State(),
			p.Clock(), p.Length(), p.Speed(), anim.LoopCount, anim.FinishedCount)
	}
	if a.paused {
		text += "PAUSED\n"
	}
	text += "space pause  <-/-> animation  up/down speed  S stop  tab set  A prop  B bones  R reload  F5/F9 save/load  F6/F7 actor save/load  Del clear saves"
	return text
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.cfg.Viewer.Width, a.cfg.Viewer.Height
}

// Stage 返回角色场景
func (a *App) Stage() *Stage {
	return a.stage
}
