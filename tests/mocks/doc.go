// Package mocks 提供统一的测试 Mock 实现
//
// # gomock
//
//   - MockClientRef: 模拟 interfaces.ClientRef，配合 gomock.Controller 设置期望
//
// # 记录型 Mock
//
//   - MockMetrics: 模拟 interfaces.Metrics，记录所有上报，可通过 Func 字段覆盖行为
//
// 使用示例:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockClientRef[Req, Res](ctrl)
//	client.EXPECT().Ask(gomock.Any(), req).Return(res, nil)
package mocks
