// Package resolver 实现隐身页面解析。
//
// 一次解析会话启动一个注入了反检测脚本的无头浏览器,
// 全程监听网络流量并对URL进行真伪分类,
// 通过升级式阶段(被动等待、页面交互、脚本回退、终态提取)
// 收敛出至多一条可直接拉取的视频URL。
//
// 另提供无浏览器的静态探测路径,适用于服务端渲染的分享页。
package resolver
