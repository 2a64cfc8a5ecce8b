package resolver

// ExtractedVideo 页面内脚本提取到的单个视频要素
type ExtractedVideo struct {
	URL    string `json:"url"`
	Source string `json:"source"` // 来源标记: window_object / video_element / source_element / script_tag / play_addr
	Type   string `json:"type"`
	Title  string `json:"title"`
}

// fallbackExtractionJS 脚本回退探测
// 遍历window全局对象中疑似播放器数据的字段、内联脚本文本、
// video/source标签的src,以及performance资源条目。
// 返回URL字符串数组,真伪判定留给Go侧分类器
const fallbackExtractionJS = `() => {
    const urls = [];
    const seen = new Set();
    const push = (u) => {
        if (u && typeof u === 'string' && u.startsWith('http') && !seen.has(u)) {
            seen.add(u);
            urls.push(u);
        }
    };
    const urlRe = /https?:\/\/[^\s"'\\]+/g;

    // window全局对象中的播放器数据
    const keys = ['_ROUTER_DATA', '__INITIAL_STATE__', '_SSR_HYDRATED_DATA', 'playerConfig'];
    const walk = (obj, depth) => {
        if (!obj || depth > 6) return;
        if (typeof obj === 'string') {
            if (obj.includes('douyinvod') || obj.includes('.mp4') || obj.includes('.m3u8')) {
                push(obj);
            }
            return;
        }
        if (typeof obj !== 'object') return;
        for (const k in obj) {
            try { walk(obj[k], depth + 1); } catch (e) {}
        }
    };
    for (const key of keys) {
        try { walk(window[key], 0); } catch (e) {}
    }

    // 内联脚本中的视频URL (JSON转义的斜杠先还原)
    document.querySelectorAll('script').forEach(s => {
        const text = (s.textContent || '');
        if (!text.includes('douyinvod') && !text.includes('.mp4')) return;
        const unescaped = text.replace(/\\\//g, '/');
        const matches = unescaped.match(urlRe) || [];
        matches.forEach(m => {
            if (m.includes('douyinvod') || m.includes('.mp4') || m.includes('.m3u8')) push(m);
        });
    });

    // video/source标签的src
    document.querySelectorAll('video').forEach(v => {
        push(v.src);
        push(v.currentSrc);
    });
    document.querySelectorAll('video source, source').forEach(s => push(s.src));

    // performance资源条目里可能留有已发出的拉流请求
    try {
        performance.getEntriesByType('resource').forEach(e => {
            if (e.name && (e.name.includes('douyinvod') || e.name.includes('.mp4'))) {
                push(e.name);
            }
        });
    } catch (e) {}

    return urls;
}`

// terminalExtractionJS 终态提取
// 收割最终DOM中的视频要素并附带来源与标题上下文。
// 在所有阶段之后执行,此时懒加载与播放器初始化已经尘埃落定
const terminalExtractionJS = `() => {
    const videos = [];
    const seen = new Set();
    const push = (url, source, type, title) => {
        if (!url || typeof url !== 'string' || !url.startsWith('http')) return;
        if (seen.has(url)) return;
        seen.add(url);
        videos.push({ url: url, source: source, type: type || '', title: title || '' });
    };

    const pageTitle = (document.title || '').trim();

    // window全局对象
    const keys = ['_ROUTER_DATA', '__INITIAL_STATE__', '_SSR_HYDRATED_DATA'];
    const walk = (obj, depth) => {
        if (!obj || depth > 6) return;
        if (typeof obj === 'string') {
            if (obj.includes('douyinvod') || obj.includes('.mp4') || obj.includes('.m3u8')) {
                push(obj, 'window_object', '', pageTitle);
            }
            return;
        }
        if (typeof obj !== 'object') return;
        for (const k in obj) {
            try { walk(obj[k], depth + 1); } catch (e) {}
        }
    };
    for (const key of keys) {
        try { walk(window[key], 0); } catch (e) {}
    }

    // 内联脚本: 直链媒体URL与play_addr JSON片段
    const urlRe = /https?:\/\/[^\s"'\\]+/g;
    document.querySelectorAll('script').forEach(s => {
        const text = (s.textContent || '');
        if (!text.includes('douyinvod') && !text.includes('.mp4') && !text.includes('play_addr')) return;
        const unescaped = text.replace(/\\\//g, '/');

        // play_addr片段中的url_list
        const paIdx = unescaped.indexOf('play_addr');
        if (paIdx >= 0) {
            const fragment = unescaped.slice(paIdx, paIdx + 2000);
            (fragment.match(urlRe) || []).forEach(m => {
                if (m.includes('douyinvod') || m.includes('.mp4')) {
                    push(m, 'play_addr', '', pageTitle);
                }
            });
        }

        (unescaped.match(urlRe) || []).forEach(m => {
            if (m.includes('douyinvod') || m.includes('.mp4') || m.includes('.m3u8')) {
                push(m, 'script_tag', '', pageTitle);
            }
        });
    });

    // video标签
    document.querySelectorAll('video').forEach(v => {
        push(v.src, 'video_element', v.getAttribute('type'), pageTitle);
        push(v.currentSrc, 'video_element', '', pageTitle);
    });

    // source标签
    document.querySelectorAll('source').forEach(s => {
        push(s.src, 'source_element', s.getAttribute('type'), pageTitle);
    });

    return videos;
}`
