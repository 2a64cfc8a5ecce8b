package resolver

import (
	"fmt"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// StealthProfile 浏览器会话的静态配置
// 纯数据构造,不做任何I/O,不会失败
type StealthProfile struct {
	UserAgent      string
	AcceptLanguage string
	Platform       string
	TimezoneID     string
	ViewportWidth  int
	ViewportHeight int

	// LaunchFlags 启动参数,键为flag名,值为可选参数
	LaunchFlags map[string]string

	// ExtraHeaders 附加HTTP头部 (name, value交替)
	ExtraHeaders []string

	// InitScript 导航前注入的反检测脚本
	// 叠加在go-rod/stealth基础层之上
	InitScript string
}

// NewStealthProfile 构造默认隐身配置
func NewStealthProfile() *StealthProfile {
	return &StealthProfile{
		UserAgent:      models.DefaultUserAgent,
		AcceptLanguage: "zh-CN,zh;q=0.9,en;q=0.8",
		Platform:       "Win32",
		TimezoneID:     "Asia/Shanghai",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		LaunchFlags: map[string]string{
			"no-sandbox":                             "",
			"disable-setuid-sandbox":                 "",
			"disable-dev-shm-usage":                  "",
			"disable-blink-features":                 "AutomationControlled",
			"disable-infobars":                       "",
			"disable-notifications":                  "",
			"disable-extensions":                     "",
			"disable-default-apps":                   "",
			"no-first-run":                           "",
			"no-default-browser-check":               "",
			"disable-background-timer-throttling":    "",
			"disable-backgrounding-occluded-windows": "",
			"disable-renderer-backgrounding":         "",
			"disable-ipc-flooding-protection":        "",
			"lang":                                   "zh-CN",
			"window-size":                            "1920,1080",
		},
		ExtraHeaders: []string{
			"Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8",
			"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Upgrade-Insecure-Requests", "1",
		},
		InitScript: stealthInitScript,
	}
}

// launchBrowser 按隐身配置启动浏览器并连接
func launchBrowser(profile *StealthProfile, headless bool) (*rod.Browser, error) {
	l := launcher.New().Headless(headless)
	for name, value := range profile.LaunchFlags {
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: 连接失败: %v", models.ErrBrowserLaunch, err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return browser, nil
}

// newStealthPage 创建注入了反检测脚本的标签页
// 注入必须发生在导航之前,否则站点脚本会先看到自动化特征
func newStealthPage(browser *rod.Browser, profile *StealthProfile) (*rod.Page, error) {
	// 基础层: go-rod/stealth的通用补丁
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("创建隐身标签页失败: %w", err)
	}

	// UA/平台/语言伪装
	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      profile.UserAgent,
		AcceptLanguage: profile.AcceptLanguage,
		Platform:       profile.Platform,
	}).Call(page); err != nil {
		utils.Warnf("设置UA伪装失败: %v", err)
	}

	// 时区伪装
	if err := (proto.EmulationSetTimezoneOverride{
		TimezoneID: profile.TimezoneID,
	}).Call(page); err != nil {
		utils.Warnf("设置时区失败: %v", err)
	}

	// 视口
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             profile.ViewportWidth,
		Height:            profile.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		utils.Warnf("设置视口失败: %v", err)
	}

	// 附加请求头
	if len(profile.ExtraHeaders) > 0 {
		if _, err := page.SetExtraHeaders(profile.ExtraHeaders); err != nil {
			utils.Warnf("设置附加头部失败: %v", err)
		}
	}

	// 叠加层: 站点针对性的反检测脚本
	if _, err := page.EvalOnNewDocument(profile.InitScript); err != nil {
		// 注入失败不致命,继续尝试解析
		utils.Warnf("注入反检测脚本失败: %v", err)
	}

	return page, nil
}

// stealthInitScript 导航前注入的反检测脚本
// 覆盖webdriver特征、插件/硬件档案、WebGL渲染器与toString自省
const stealthInitScript = `
(function() {
    // 隐藏webdriver特征
    Object.defineProperty(navigator, 'webdriver', {
        get: () => undefined
    });
    try { delete navigator.__proto__.webdriver; } catch (e) {}

    // 伪造chrome对象
    if (!window.chrome) {
        window.chrome = {
            runtime: {},
            loadTimes: function() {},
            csi: function() {},
            app: {}
        };
    }

    // 伪造权限查询
    const originalQuery = window.navigator.permissions.query;
    window.navigator.permissions.query = (parameters) => (
        parameters.name === 'notifications' ?
            Promise.resolve({ state: Notification.permission }) :
            originalQuery(parameters)
    );

    // 伪造插件/语言/平台/硬件档案
    Object.defineProperty(navigator, 'plugins', {
        get: () => [1, 2, 3, 4, 5]
    });
    Object.defineProperty(navigator, 'languages', {
        get: () => ['zh-CN', 'zh', 'en']
    });
    Object.defineProperty(navigator, 'platform', {
        get: () => 'Win32'
    });
    Object.defineProperty(navigator, 'hardwareConcurrency', {
        get: () => 8
    });
    Object.defineProperty(navigator, 'deviceMemory', {
        get: () => 8
    });

    // 清除各类自动化残留属性
    const props = ['webdriver', '__webdriver_script_fn', '__driver_evaluate',
        '__webdriver_evaluate', '__selenium_evaluate', '__fxdriver_evaluate',
        '__driver_unwrapped', '__webdriver_unwrapped', '__selenium_unwrapped',
        '__fxdriver_unwrapped', '__webdriver_script_func', '__webdriver_script_function'];
    props.forEach(prop => {
        try {
            delete navigator[prop];
            delete window[prop];
        } catch (e) {}
    });

    // 伪造WebGL渲染器为通用消费级GPU
    const getParameter = WebGLRenderingContext.prototype.getParameter;
    WebGLRenderingContext.prototype.getParameter = function(parameter) {
        if (parameter === 37445) {
            return 'Intel Inc.';
        }
        if (parameter === 37446) {
            return 'Intel Iris OpenGL Engine';
        }
        return getParameter.call(this, parameter);
    };

    // 补丁后的原生函数在自省时仍显示为native code
    const originalToString = Function.prototype.toString;
    Function.prototype.toString = function() {
        if (this === navigator.webdriver || this === window.chrome) {
            return 'function() { [native code] }';
        }
        return originalToString.call(this);
    };
})();
`
